package fakesurface

import (
	"context"
	"fmt"

	"epbm-autofill/internal/application/port/output"
)

type elementKind int

const (
	kindUsername elementKind = iota
	kindPassword
	kindLoginSubmit
	kindAlert
	kindMarker
	kindCard
	kindCardTitle
	kindCardDesc
	kindCardDone
	kindHeading
	kindRating
	kindStar
	kindTextArea
	kindCheckbox
	kindNext
	kindSubmit
	kindDialog
	kindDialogAction
)

var kindNames = map[elementKind]string{
	kindUsername:     "username",
	kindPassword:     "password",
	kindLoginSubmit:  "login-submit",
	kindAlert:        "alert",
	kindMarker:       "marker",
	kindCard:         "card",
	kindCardTitle:    "card-title",
	kindCardDesc:     "card-desc",
	kindCardDone:     "card-done",
	kindHeading:      "heading",
	kindRating:       "rating",
	kindStar:         "star",
	kindTextArea:     "textarea",
	kindCheckbox:     "checkbox",
	kindNext:         "next",
	kindSubmit:       "submit",
	kindDialog:       "dialog",
	kindDialogAction: "dialog-action",
}

type element struct {
	s     *Surface
	kind  elementKind
	i, j  int
	epoch int
}

func (e *element) describe() string {
	switch e.kind {
	case kindStar:
		return fmt.Sprintf("star[%d][%d]", e.i, e.j)
	case kindCard, kindRating, kindTextArea, kindCheckbox:
		return fmt.Sprintf("%s[%d]", kindNames[e.kind], e.i)
	default:
		return kindNames[e.kind]
	}
}

func (e *element) Text(ctx context.Context) (string, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if _, err := e.s.usable(e); err != nil {
		return "", err
	}
	return e.s.textOf(e), nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if _, err := e.s.usable(e); err != nil {
		return "", false, err
	}
	if e.kind == kindCard && name == "href" {
		return e.s.Cards[e.i].Href, true, nil
	}
	return "", false, nil
}

func (e *element) FindAll(ctx context.Context, selector string) ([]output.Element, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if _, err := e.s.usable(e); err != nil {
		return nil, err
	}

	var out []output.Element
	add := func(kind elementKind, j int) {
		out = append(out, &element{s: e.s, kind: kind, i: e.i, j: j, epoch: e.epoch})
	}
	sel := e.s.Sel

	switch e.kind {
	case kindCard:
		card := e.s.Cards[e.i]
		switch selector {
		case sel.CardTitleSelector:
			if card.Title != "" {
				add(kindCardTitle, 0)
			}
		case sel.CardDescSelector:
			if card.Description != "" {
				add(kindCardDesc, 0)
			}
		case sel.CompletedMarker:
			if card.Completed {
				add(kindCardDone, 0)
			}
		}
	case kindRating:
		if selector == sel.StarSelector {
			p, _ := e.s.currentPage()
			for j := 0; j < p.Stars; j++ {
				out = append(out, &element{s: e.s, kind: kindStar, i: e.i, j: j, epoch: e.epoch})
			}
		}
	}
	return out, nil
}
