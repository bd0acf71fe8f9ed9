package handler

import (
	"net/http"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/stockapi"
	"github.com/boddenberg/stock-admin-panel-go/internal/service"
)

// ============================================================
// Product catalog screen
// ============================================================

const maxUploadSize = 10 << 20

// catalogResponse is the catalog snapshot plus the requested page of cards.
type catalogResponse struct {
	service.CatalogSnapshot
	Products domain.ListResponse[service.ProductItem] `json:"products"`
}

func catalogView(d Deps, r *http.Request) catalogResponse {
	page, pageSize := parsePagination(r)
	return catalogResponse{
		CatalogSnapshot: d.Catalog.Snapshot(),
		Products:        d.Catalog.Page(page, pageSize),
	}
}

func catalogMountHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/views/products/mount")
		defer span.End()

		done := d.Catalog.Mount(ctx)
		if r.URL.Query().Get("wait") == "true" {
			select {
			case <-done:
			case <-r.Context().Done():
				return
			}
		}
		writeJSON(w, http.StatusAccepted, viewResponse{Location: d.History.Current(), View: catalogView(d, r)})
	}
}

func catalogUnmountHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Catalog.Unmount()
		w.WriteHeader(http.StatusNoContent)
	}
}

func catalogSnapshotHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: catalogView(d, r)})
	}
}

func catalogReloadHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/views/products/reload")
		defer span.End()

		done := d.Catalog.Reload(ctx)
		select {
		case <-done:
		case <-r.Context().Done():
			return
		}
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: catalogView(d, r)})
	}
}

func catalogOpenFormHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Catalog.OpenForm()
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.Catalog.Snapshot().Form})
	}
}

func catalogCloseFormHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Catalog.CloseForm()
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.Catalog.Snapshot().Form})
	}
}

func catalogFieldsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := decodeFields(r)
		if err == nil {
			err = d.Catalog.SetFields(fields)
		}
		if err != nil {
			writeViewError(w, err, d.History.Current(), d.Catalog.Snapshot().Form, d.Logger)
			return
		}
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.Catalog.Snapshot().Form})
	}
}

func catalogUploadHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/views/products/form/image")
		defer span.End()

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		file, header, err := r.FormFile(stockapi.UploadField)
		if err != nil {
			writeViewError(w, &domain.ErrValidation{Field: stockapi.UploadField, Message: "arquivo de imagem ausente ou inválido"},
				d.History.Current(), d.Catalog.Snapshot().Form, d.Logger)
			return
		}
		defer file.Close()

		if err := d.Catalog.UploadImage(ctx, header.Filename, file); err != nil {
			writeViewError(w, err, d.History.Current(), d.Catalog.Snapshot().Form, d.Logger)
			return
		}
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.Catalog.Snapshot().Form})
	}
}

func catalogSubmitHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/views/products/form/submit")
		defer span.End()

		if err := d.Catalog.Submit(ctx); err != nil {
			writeViewError(w, err, d.History.Current(), d.Catalog.Snapshot().Form, d.Logger)
			return
		}
		writeJSON(w, http.StatusCreated, viewResponse{Location: d.History.Current(), View: catalogView(d, r)})
	}
}
