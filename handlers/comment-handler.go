package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/krishkalaria12/snap-gallery/authz"
	"github.com/krishkalaria12/snap-gallery/middleware"
	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/store"
)

func commentPath(imageID, commentID string) string {
	return galleryPath(imageID) + "/comment/" + commentID
}

// CommentIndex sends the visitor to the image page, where comments are shown.
func (h *Handler) CommentIndex(c *fiber.Ctx) error {
	image, err := h.store.GetImage(c.UserContext(), c.Params("imageId"))
	if err != nil {
		return storeFailure(c, err, "Image")
	}
	return c.Redirect(galleryPath(image.ID))
}

func (h *Handler) NewCommentForm(c *fiber.Ctx) error {
	image, err := h.lookupImage(c)
	if err != nil {
		return storeFailure(c, err, "Image")
	}
	if d := h.policy.CanCreateComment(middleware.CurrentIdentity(c), image); !d.Allowed {
		return deny(c, d)
	}

	return success(c, "New comment", fiber.Map{
		"image":  image,
		"action": galleryPath(image.ID) + "/comment",
		"method": fiber.MethodPost,
		"fields": []string{"text"},
	})
}

func (h *Handler) CreateComment(c *fiber.Ctx) error {
	id := middleware.CurrentIdentity(c)

	image, err := h.lookupImage(c)
	if err != nil {
		return storeFailure(c, err, "Image")
	}
	if d := h.policy.CanCreateComment(id, image); !d.Allowed {
		return deny(c, d)
	}

	comment, err := h.store.CreateComment(c.UserContext(), store.NewComment{
		Text:    c.FormValue("text"),
		Author:  id.Username,
		ImageID: image.ID,
		OwnerID: id.UserID,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmptyComment) {
			return c.Status(fiber.StatusBadRequest).SendString("Comment text is required")
		}
		return storeFailure(c, err, "Image")
	}

	log.Infow("comment created", "id", comment.ID, "image", image.ID, "author", id.Username)
	return c.Redirect(galleryPath(image.ID))
}

// lookupImage loads the :imageId image. A missing image is returned as nil
// so the policy can report it.
func (h *Handler) lookupImage(c *fiber.Ctx) (*models.Image, error) {
	image, err := h.store.GetImage(c.UserContext(), c.Params("imageId"))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return image, err
}

// lookupComment loads :commentId. A comment reached through another image's
// path is reported as missing.
func (h *Handler) lookupComment(c *fiber.Ctx) (*models.Comment, error) {
	comment, err := h.store.GetComment(c.UserContext(), c.Params("commentId"))
	if err != nil {
		return nil, err
	}
	if comment.ImageID != c.Params("imageId") {
		return nil, store.ErrNotFound
	}
	return comment, nil
}

func (h *Handler) EditCommentForm(c *fiber.Ctx) error {
	comment, err := h.lookupComment(c)
	if err != nil {
		return storeFailure(c, err, "Comment")
	}
	if d := h.policy.CanMutateComment(middleware.CurrentIdentity(c), comment, authz.ActionUpdate); !d.Allowed {
		return deny(c, d)
	}

	return success(c, "Edit comment", fiber.Map{
		"comment": comment,
		"action":  commentPath(c.Params("imageId"), comment.ID),
		"method":  fiber.MethodPut,
		"fields":  []string{"text"},
	})
}

func (h *Handler) UpdateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()

	comment, err := h.lookupComment(c)
	if err != nil {
		return storeFailure(c, err, "Comment")
	}
	if d := h.policy.CanMutateComment(middleware.CurrentIdentity(c), comment, authz.ActionUpdate); !d.Allowed {
		return deny(c, d)
	}

	if _, err := h.store.UpdateComment(ctx, comment.ID, c.FormValue("text")); err != nil {
		if errors.Is(err, store.ErrEmptyComment) {
			return c.Status(fiber.StatusBadRequest).SendString("Comment text is required")
		}
		return storeFailure(c, err, "Comment")
	}
	return c.Redirect(galleryPath(c.Params("imageId")))
}

func (h *Handler) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := middleware.CurrentIdentity(c)

	comment, err := h.lookupComment(c)
	if err != nil {
		return storeFailure(c, err, "Comment")
	}
	if d := h.policy.CanMutateComment(id, comment, authz.ActionDelete); !d.Allowed {
		return deny(c, d)
	}

	if err := h.store.DeleteComment(ctx, comment.ID); err != nil {
		return storeFailure(c, err, "Comment")
	}

	log.Infow("comment deleted", "id", comment.ID, "by", id.UserID)
	return c.Redirect(galleryPath(c.Params("imageId")))
}
