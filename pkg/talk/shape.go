package talk

import (
	_ "embed"
	"strconv"
	"sync"

	"github.com/aretw0/talks/pkg/migration"
	"github.com/aretw0/talks/pkg/schema"
	"github.com/aretw0/talks/pkg/tree"
)

//go:embed talk.yaml
var talkSchema []byte

var current = sync.OnceValue(func() *schema.Schema {
	return schema.MustParse(talkSchema)
})

// CurrentSchema returns the schema every talk must satisfy after upgrade.
func CurrentSchema() *schema.Schema {
	return current()
}

// Upgrades returns the default migration chain for talk documents.
//
//	v1: adds later="false" to the root.
//	v2: renames legacy <params><param key=".."> under a request to <args><arg name="..">.
func Upgrades() migration.Chain {
	return migration.Chain{
		migration.Versioned(1, "later-flag", func(doc *tree.Document) {
			if doc.Root().SelectAttr("later") == nil {
				doc.Root().CreateAttr("later", "false")
			}
		}),
		migration.Versioned(2, "named-args", func(doc *tree.Document) {
			for _, req := range doc.FindAll("/talk/request") {
				params := req.SelectElement("params")
				if params == nil {
					continue
				}
				params.Tag = "args"
				for _, p := range params.SelectElements("param") {
					p.Tag = "arg"
					if key := p.SelectAttr("key"); key != nil {
						value := key.Value
						p.RemoveAttr("key")
						p.CreateAttr("name", value)
					}
				}
			}
		}),
	}
}

// Skeleton returns the document of a fresh talk, already at the version
// stamped by chain.
func Skeleton(number int64, name string, chain migration.Chain) *tree.Document {
	doc := tree.New("talk")
	root := doc.Root()
	root.CreateAttr("name", name)
	root.CreateAttr("number", strconv.FormatInt(number, 10))
	root.CreateAttr("later", "false")
	if v := chain.Version(); v > 0 {
		root.CreateAttr(migration.VersionAttr, strconv.Itoa(v))
	}
	return doc
}
