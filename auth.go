package main

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"gorm.io/gorm"
)

type api struct {
	db     *gorm.DB
	tokens *TokenService
}

func newAPI(db *gorm.DB, cfg Config) *api {
	return &api{db: db, tokens: NewTokenService(cfg)}
}

type contextKey string

const userContextKey contextKey = "user"

// currentUser returns the authenticated user stashed by requireUser.
func currentUser(r *http.Request) *User {
	u, _ := r.Context().Value(userContextKey).(*User)
	return u
}

// requireUser resolves the bearer token to a persisted user record. The token
// subject is the username. Inactive accounts get 400, everything else that
// fails gets 401 plus a challenge header.
func (a *api) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unauthorized := func() {
			w.Header().Set("WWW-Authenticate", "Bearer")
			errorJSON(w, http.StatusUnauthorized, "Could not validate credentials")
		}

		tokenStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || tokenStr == "" {
			unauthorized()
			return
		}

		username, err := a.tokens.Verify(tokenStr)
		if err != nil {
			unauthorized()
			return
		}

		var u User
		if err := a.db.Where("username = ?", username).First(&u).Error; err != nil {
			unauthorized()
			return
		}
		if u.IsActive == 0 {
			errorJSON(w, http.StatusBadRequest, "Inactive user account")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, &u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

/* ---------- DTOs ---------- */

type registerReq struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type userPatch struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

/* ---------- Handlers ---------- */

// POST /api/auth/register
func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerReq
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Username = strings.TrimSpace(in.Username)

	if _, err := mail.ParseAddress(in.Email); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if in.Username == "" {
		errorJSON(w, http.StatusBadRequest, "username is required")
		return
	}
	if len(in.Password) < minPasswordLen {
		errorJSON(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	// Email first, then username; the two collisions report separately.
	var count int64
	if err := a.db.Model(&User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	if count > 0 {
		errorJSON(w, http.StatusConflict, "Email already registered")
		return
	}
	if err := a.db.Model(&User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	if count > 0 {
		errorJSON(w, http.StatusConflict, "Username already taken")
		return
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "hash error")
		return
	}
	u := User{
		Email:          in.Email,
		Username:       in.Username,
		HashedPassword: hash,
		FullName:       strings.TrimSpace(in.FullName),
		IsActive:       1,
	}
	if err := a.db.Create(&u).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

// POST /api/auth/login (form-encoded username+password; the identifier may be
// a username or an email)
func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid form")
		return
	}
	identifier := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	if identifier == "" || password == "" {
		errorJSON(w, http.StatusBadRequest, "username and password required")
		return
	}

	badCredentials := func() {
		w.Header().Set("WWW-Authenticate", "Bearer")
		errorJSON(w, http.StatusUnauthorized, "Incorrect username/email or password")
	}

	// Username match first, email as fallback.
	var u User
	err := a.db.Where("username = ?", identifier).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = a.db.Where("email = ?", strings.ToLower(identifier)).First(&u).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		badCredentials()
		return
	} else if err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}

	if !checkPassword(password, u.HashedPassword) {
		badCredentials()
		return
	}
	if u.IsActive == 0 {
		errorJSON(w, http.StatusBadRequest, "Inactive user account")
		return
	}

	tok, err := a.tokens.IssueAccessToken(u.Username)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "token error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": tok,
		"token_type":   "bearer",
	})
}

// GET /api/auth/me
func (a *api) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

// PUT /api/auth/me
func (a *api) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)

	var in userPatch
	if err := decodeJSON(r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			errorJSON(w, http.StatusBadRequest, "invalid email address")
			return
		}
		if email != u.Email {
			var count int64
			if err := a.db.Model(&User{}).Where("email = ? AND id <> ?", email, u.ID).Count(&count).Error; err != nil {
				errorJSON(w, http.StatusInternalServerError, "db error")
				return
			}
			if count > 0 {
				errorJSON(w, http.StatusConflict, "Email already in use")
				return
			}
		}
		u.Email = email
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			errorJSON(w, http.StatusBadRequest, "username is required")
			return
		}
		if username != u.Username {
			var count int64
			if err := a.db.Model(&User{}).Where("username = ? AND id <> ?", username, u.ID).Count(&count).Error; err != nil {
				errorJSON(w, http.StatusInternalServerError, "db error")
				return
			}
			if count > 0 {
				errorJSON(w, http.StatusConflict, "Username already taken")
				return
			}
		}
		u.Username = username
	}

	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}

	if in.Password != nil {
		if len(*in.Password) < minPasswordLen {
			errorJSON(w, http.StatusBadRequest, "password must be at least 6 characters")
			return
		}
		hash, err := hashPassword(*in.Password)
		if err != nil {
			errorJSON(w, http.StatusInternalServerError, "hash error")
			return
		}
		u.HashedPassword = hash
	}

	if err := a.db.Save(u).Error; err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DELETE /api/auth/me
// Removes the account plus everything it owns in one transaction. Budgets
// cascade the same way expenses do.
func (a *api) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)

	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", u.ID).Delete(&Expense{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&Budget{}).Error; err != nil {
			return err
		}
		return tx.Delete(&User{}, u.ID).Error
	})
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

// POST /api/auth/logout
// Stateless tokens: nothing to invalidate server-side, the client drops it.
func (a *api) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}
