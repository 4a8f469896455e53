// Package authz decides who may view, create, modify or delete images and
// comments. Every check is a pure function of the requester and the resource.
package authz

import (
	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/store"
)

// Identity is the requester resolved from the session. The zero value is an
// anonymous visitor.
type Identity struct {
	UserID   string
	Username string
}

func Anonymous() Identity {
	return Identity{}
}

func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

type Action string

const (
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonNotOwner        Reason = "not_owner"
	ReasonMissing         Reason = "missing"
	ReasonPrivate         Reason = "private"
)

// Decision is the outcome of a policy check. A denial always carries a reason.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func Permit() Decision {
	return Decision{Allowed: true}
}

func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Policy holds the two switches that separate the permissive gallery
// behavior from the hardened one.
//
// EnforceOwnership restricts mutations to the resource owner and scopes the
// authenticated gallery to the requester's own images. Without it any
// logged-in user may edit or delete anything and sees every image.
//
// GateDirectReads applies CanViewImage to image detail pages and raw payload
// reads. Without it, private images stay reachable by identifier.
type Policy struct {
	EnforceOwnership bool
	GateDirectReads  bool
}

func (p Policy) CanViewImage(id Identity, image *models.Image) Decision {
	if image == nil {
		return Deny(ReasonMissing)
	}
	if image.IsPublic() || id.Authenticated() {
		return Permit()
	}
	return Deny(ReasonPrivate)
}

func (p Policy) CanListPrivateGallery(id Identity) Decision {
	if !id.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}
	return Permit()
}

// GalleryScope returns the listing filter for the authenticated gallery.
func (p Policy) GalleryScope(id Identity) store.ImageFilter {
	if p.EnforceOwnership {
		return store.ImageFilter{OwnerID: id.UserID}
	}
	return store.ImageFilter{}
}

// PublicScope returns the listing filter for anonymous visitors.
func (p Policy) PublicScope() store.ImageFilter {
	return store.ImageFilter{Visibility: models.VisibilityPublic}
}

func (p Policy) CanUpload(id Identity) Decision {
	if !id.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}
	return Permit()
}

func (p Policy) CanMutateImage(id Identity, image *models.Image, action Action) Decision {
	if !id.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}
	if image == nil {
		return Deny(ReasonMissing)
	}
	return p.ownership(id, image.OwnerID)
}

func (p Policy) CanCreateComment(id Identity, image *models.Image) Decision {
	if !id.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}
	if image == nil {
		return Deny(ReasonMissing)
	}
	return Permit()
}

func (p Policy) CanMutateComment(id Identity, comment *models.Comment, action Action) Decision {
	if !id.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}
	if comment == nil {
		return Deny(ReasonMissing)
	}
	return p.ownership(id, comment.OwnerID)
}

func (p Policy) ownership(id Identity, ownerID string) Decision {
	if p.EnforceOwnership && ownerID != id.UserID {
		return Deny(ReasonNotOwner)
	}
	return Permit()
}
