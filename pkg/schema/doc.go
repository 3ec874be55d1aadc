// Package schema validates XML trees against element rules.
//
// A Schema names the root element and, per element tag, the attributes it
// may carry (with a Type and a required flag), the children it may hold
// (with min/max cardinality) and the type of its text. Anything not
// declared is rejected, so an unexpected attribute fails validation.
//
// Schemas are usually written in YAML:
//
//	root: talk
//	elements:
//	  talk:
//	    attributes:
//	      name: {type: string, required: true}
//	      number: {type: int, required: true}
//	    children:
//	      request: {max: 1}
//	  request:
//	    attributes:
//	      id: {type: string, required: true}
//
// and loaded with Parse:
//
//	s, err := schema.Parse(data)
//	if err := s.Validate(doc); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // ...
//	    }
//	}
//
// Custom attribute types can be registered programmatically:
//
//	semver := schema.Custom("semver", func(v string) error {
//	    if !strings.Contains(v, ".") {
//	        return fmt.Errorf("expected dotted version")
//	    }
//	    return nil
//	})
package schema
