package dstar

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// NBADocument is the YAML form of an NBA:
//
//	aps: [p, q]
//	start: 0
//	states:
//	  - final: false
//	    edges:
//	      - {label: "true", to: [0]}
//	      - {label: "p&!q", to: [1]}
//	  - final: true
//	    edges:
//	      - {label: p, to: [1]}
type NBADocument struct {
	APs    []string        `yaml:"aps" validate:"max=30,unique,dive,required"`
	Start  *int            `yaml:"start" validate:"omitempty,gte=0"`
	States []StateDocument `yaml:"states" validate:"dive"`
}

type StateDocument struct {
	Final bool           `yaml:"final"`
	Edges []EdgeDocument `yaml:"edges" validate:"dive"`
}

type EdgeDocument struct {
	Label string `yaml:"label" validate:"required"`
	To    []int  `yaml:"to" validate:"required,min=1,dive,gte=0"`
}

var documentValidator = validator.New(validator.WithRequiredStructEnabled())

// ReadNBAYAML decodes and validates an NBA document.
func ReadNBAYAML(r io.Reader) (*NBA, error) {
	var doc NBADocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, constructionError("empty NBA document")
		}
		return nil, fmt.Errorf("%w: decoding NBA document: %w", ErrConstruction, err)
	}
	return doc.Build()
}

// Build validates the document and constructs the NBA.
func (d *NBADocument) Build() (*NBA, error) {
	if err := documentValidator.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: invalid NBA document: %w", ErrConstruction, err)
	}
	aps, err := NewAPSet(d.APs...)
	if err != nil {
		return nil, err
	}
	nba := NewNBA(aps)
	for range d.States {
		nba.CreateState()
	}
	if d.Start != nil {
		if err := nba.SetStart(*d.Start); err != nil {
			return nil, err
		}
	}
	for s, state := range d.States {
		if err := nba.SetFinal(s, state.Final); err != nil {
			return nil, err
		}
		for _, edge := range state.Edges {
			m, err := ParseMonom(edge.Label, aps)
			if err != nil {
				return nil, fmt.Errorf("state %d: %w", s, err)
			}
			for _, to := range edge.To {
				if err := nba.AddEdgeMonom(s, m, to); err != nil {
					return nil, fmt.Errorf("state %d: %w", s, err)
				}
			}
		}
	}
	return nba, nil
}

// Document returns the YAML form of the NBA, one edge per valuation.
func (n *NBA) Document() *NBADocument {
	doc := &NBADocument{APs: n.aps.Names()}
	if start, ok := n.Start(); ok {
		doc.Start = &start
	}
	for s, row := range n.edges {
		state := StateDocument{Final: n.IsFinal(s)}
		for v, succ := range row {
			if succ == nil || succ.None() {
				continue
			}
			edge := EdgeDocument{Label: Valuation(v).Label(n.aps)}
			for t := range succ.EachSet() {
				edge.To = append(edge.To, int(t))
			}
			state.Edges = append(state.Edges, edge)
		}
		doc.States = append(doc.States, state)
	}
	return doc
}

// WriteYAML writes the document form of the NBA.
func (n *NBA) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n.Document()); err != nil {
		return err
	}
	return enc.Close()
}
