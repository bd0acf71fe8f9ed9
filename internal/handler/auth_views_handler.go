package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Sign-in, company registration and user creation screens
// ============================================================

func signInSnapshotHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.SignIn.Snapshot()})
	}
}

func signInFieldsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := decodeFields(r)
		if err == nil {
			err = d.SignIn.SetFields(fields)
		}
		if err != nil {
			writeViewError(w, err, d.History.Current(), d.SignIn.Snapshot(), d.Logger)
			return
		}
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.SignIn.Snapshot()})
	}
}

func signInSubmitHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/views/sign-in/submit")
		defer span.End()

		if err := d.SignIn.Submit(ctx); err != nil {
			writeViewError(w, err, d.History.Current(), d.SignIn.Snapshot(), d.Logger)
			return
		}
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.SignIn.Snapshot()})
	}
}

func signInTogglePasswordHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.SignIn.TogglePasswordVisibility()
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.SignIn.Snapshot()})
	}
}

func signInGoToRegisterHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.SignIn.GoToRegister()
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.Register.Snapshot()})
	}
}

func registerSnapshotHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.Register.Snapshot()})
	}
}

func registerFieldsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := decodeFields(r)
		if err == nil {
			err = d.Register.SetFields(fields)
		}
		if err != nil {
			writeViewError(w, err, d.History.Current(), d.Register.Snapshot(), d.Logger)
			return
		}
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.Register.Snapshot()})
	}
}

func registerSubmitHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/views/register/submit")
		defer span.End()

		if err := d.Register.Submit(ctx); err != nil {
			writeViewError(w, err, d.History.Current(), d.Register.Snapshot(), d.Logger)
			return
		}
		writeJSON(w, http.StatusCreated, viewResponse{Location: d.History.Current(), View: d.Register.Snapshot()})
	}
}

func createUserMountHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/views/create-user/mount")
		defer span.End()
		span.SetAttributes(attribute.String("company.id", r.URL.Query().Get("companyId")))

		d.CreateUser.Mount(r.URL.Query())
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.CreateUser.Snapshot()})
	}
}

func createUserSnapshotHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.CreateUser.Snapshot()})
	}
}

func createUserFieldsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := decodeFields(r)
		if err == nil {
			err = d.CreateUser.SetFields(fields)
		}
		if err != nil {
			writeViewError(w, err, d.History.Current(), d.CreateUser.Snapshot(), d.Logger)
			return
		}
		writeJSON(w, http.StatusOK, viewResponse{Location: d.History.Current(), View: d.CreateUser.Snapshot()})
	}
}

func createUserSubmitHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/views/create-user/submit")
		defer span.End()

		if err := d.CreateUser.Submit(ctx); err != nil {
			writeViewError(w, err, d.History.Current(), d.CreateUser.Snapshot(), d.Logger)
			return
		}
		writeJSON(w, http.StatusCreated, viewResponse{Location: d.History.Current(), View: d.CreateUser.Snapshot()})
	}
}
