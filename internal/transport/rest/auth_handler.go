package rest

import (
	"errors"
	"net/http"

	"github.com/huertohogar/storefront/internal/auth"
	"github.com/huertohogar/storefront/pkg/web"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// userResponse adds the resolved avatar URL to the canonical user.
type userResponse struct {
	auth.User
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type updateProfileRequest struct {
	FirstName      *string `json:"firstName"`
	MiddleName     *string `json:"middleName"`
	LastName       *string `json:"lastName"`
	SecondLastName *string `json:"secondLastName"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
}

// Login authenticates against the users collection and caches the token
// and user on the session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.currentSession(w, r, mLogger)
	if !ok {
		return
	}
	var req loginRequest
	if !h.decodeValid(w, r, mLogger, &req) {
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			web.RespondError(w, mLogger, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error during login", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Login failed")
		return
	}

	sess.SetAuth(token, user)
	web.RespondJSON(w, mLogger, http.StatusOK, h.renderUser(user))
}

// Logout drops the session's cached credentials. The anonymous session
// and its cart survive.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.currentSession(w, r, mLogger)
	if !ok {
		return
	}
	sess.ClearAuth()
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"status": "logged out"})
}

// Register creates a new user account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req auth.RegisterRequest
	if !h.decodeValid(w, r, mLogger, &req) {
		return
	}

	user, err := h.auth.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserAlreadyExists):
			web.RespondError(w, mLogger, http.StatusConflict, "An account with this email already exists")
		case errors.Is(err, auth.ErrInvalidUserData):
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid registration data")
		default:
			mLogger.ErrorContext(r.Context(), "Error during registration", "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Registration failed")
		}
		return
	}
	web.RespondJSON(w, mLogger, http.StatusCreated, h.renderUser(user))
}

// Profile returns the logged-in user.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	_, user, ok := h.requireUser(w, r, mLogger)
	if !ok {
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, h.renderUser(user))
}

// UpdateProfile applies a partial update to the logged-in user's record
// and refreshes the session's cached user.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, user, ok := h.requireUser(w, r, mLogger)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	fields := map[string]string{}
	setField(fields, "primer_nombre", req.FirstName)
	setField(fields, "segundo_nombre", req.MiddleName)
	setField(fields, "primer_apellido", req.LastName)
	setField(fields, "segundo_apellido", req.SecondLastName)
	setField(fields, "phone", req.Phone)
	setField(fields, "address", req.Address)
	if len(fields) == 0 {
		web.RespondError(w, mLogger, http.StatusBadRequest, "No fields to update")
		return
	}

	updated, err := h.auth.UpdateProfile(r.Context(), sess.Token(), user.ID, fields, nil)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error updating profile", "user_id", user.ID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Profile update failed")
		return
	}
	sess.SetAuth("", updated)
	web.RespondJSON(w, mLogger, http.StatusOK, h.renderUser(updated))
}

func (h *Handler) renderUser(u *auth.User) userResponse {
	resp := userResponse{User: *u}
	if u.Avatar != "" {
		resp.AvatarURL = h.auth.AvatarURL(u)
	}
	return resp
}

func setField(fields map[string]string, key string, value *string) {
	if value != nil {
		fields[key] = *value
	}
}
