// Package catalog exposes the item list to shoppers and item
// management to admins. The listing is read-mostly, so it is served
// from the Redis cache and invalidated on every admin mutation.
package catalog

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"mithai/models"
	"mithai/rdx"
	"mithai/store"
	"mithai/utils"
)

const itemPicDir = "static/itempic"

type Handler struct {
	store store.Store
	cache *rdx.Cache // may be nil
}

func NewHandler(st store.Store, cache *rdx.Cache) *Handler {
	return &Handler{store: st, cache: cache}
}

func requestCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 10*time.Second)
}

// ListItems serves the storefront item list, cache first.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	if items, ok := h.cache.CatalogGet(ctx); ok {
		utils.RespondWithJSON(w, http.StatusOK, items)
		return
	}

	items, err := h.store.Items(ctx)
	if err != nil {
		log.Println("ListItems error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	h.cache.CatalogSet(ctx, items)
	utils.RespondWithJSON(w, http.StatusOK, items)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	item, err := h.store.Item(ctx, ps.ByName("itemid"))
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, item)
}

// CreateItem adds an item from a multipart form (name, price, image).
// Admin only, enforced by the route.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if name == "" || err != nil || price <= 0 {
		http.Error(w, "Name and a positive price are required", http.StatusBadRequest)
		return
	}

	item := models.Item{
		ItemID:    uuid.NewString(),
		Name:      name,
		Price:     price,
		CreatedAt: time.Now(),
	}

	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		if !utils.ValidateImageFileType(w, header) {
			return
		}
		imageURL, err := saveItemImage(header, item.ItemID)
		if err != nil {
			log.Println("CreateItem image error:", err)
			http.Error(w, "Failed to save image", http.StatusInternalServerError)
			return
		}
		item.ImageURL = imageURL
	}

	if err := h.store.InsertItem(ctx, item); err != nil {
		log.Println("CreateItem insert error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	h.cache.CatalogInvalidate(ctx)

	utils.RespondWithJSON(w, http.StatusCreated, item)
}

// DeleteItem removes an item from the catalog. Existing order lines
// keep their snapshots; carts still holding the item surface it as
// missing.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	if err := h.store.DeleteItem(ctx, ps.ByName("itemid")); err != nil {
		log.Println("DeleteItem error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	h.cache.CatalogInvalidate(ctx)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "deleted"})
}

func saveItemImage(header *multipart.FileHeader, itemID string) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	if err := utils.EnsureDir(itemPicDir); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	thumbDir := filepath.Join(itemPicDir, "thumb")
	if err := utils.EnsureDir(thumbDir); err != nil {
		return "", fmt.Errorf("create thumb dir: %w", err)
	}

	fileName := itemID + ".jpg"
	if err := imaging.Save(img, filepath.Join(itemPicDir, fileName)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}

	thumb := imaging.Resize(img, 300, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(thumbDir, fileName)); err != nil {
		return "", fmt.Errorf("save thumbnail: %w", err)
	}

	return "/static/itempic/" + fileName, nil
}
