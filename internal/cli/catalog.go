package cli

import (
	"github.com/aretw0/talks/pkg/question"
)

// Commands lists the command types the binary recognizes.
var Commands = []string{"deploy", "release", "merge", "stop"}

// Catalog is the question asked about every comment: it must mention
// @login, name one of Commands and, when authors is set, come from one
// of them. Parameters and the author are recorded as arguments.
func Catalog(login string, authors []string) question.Question {
	var qs []question.Question
	for _, c := range Commands {
		qs = append(qs, question.IfContains(c, question.Command(c)))
	}
	q := question.WithAuthor(question.Parametrized(question.FirstOf(qs...)))
	if len(authors) > 0 {
		q = question.Authorized(authors, q)
	}
	return question.ReferredTo(login, q)
}
