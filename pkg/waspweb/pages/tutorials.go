package pages

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/waspscripts/wasp-web/pkg/waspweb"
)

// TutorialEdit is the result of opening a tutorial for editing: either the
// tutorial or the location to redirect to.
type TutorialEdit struct {
	Tutorial *waspweb.Tutorial `json:"post,omitempty"`
	Redirect string            `json:"-"`
}

// TutorialEdit loads a tutorial for its author. Unknown tutorials redirect to
// the tutorial list and anyone but the author to the tutorial itself.
func (a *Assembler) TutorialEdit(ctx context.Context, slug string, requester uuid.UUID) (*TutorialEdit, error) {
	if slug == "" {
		return &TutorialEdit{Redirect: "/tutorials"}, nil
	}

	tutorial, err := a.repository.GetTutorial(ctx, slug)
	if err != nil {
		if errors.Is(err, waspweb.ErrTutorialNotFound) {
			return &TutorialEdit{Redirect: "/tutorials"}, nil
		}
		return nil, serverError("SELECT tutorials", err)
	}

	if requester == uuid.Nil || requester != tutorial.AuthorID {
		return &TutorialEdit{Redirect: "/tutorials/" + EncodeSEO(slug)}, nil
	}
	return &TutorialEdit{Tutorial: tutorial}, nil
}
