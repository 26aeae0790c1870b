package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noxvision/accounts-api/internal/repository"
	"github.com/noxvision/accounts-api/internal/service"
	"github.com/noxvision/accounts-api/internal/storage"
	"github.com/noxvision/accounts-api/internal/token"
)

const maxAvatarSize = 5 << 20 // 5 MiB

// Handler exposes the account lifecycle over HTTP. Transport concerns only;
// all policy lives in the service layer.
type Handler struct {
	users   *service.UserService
	apiKeys *service.ApiKeyService
	avatars *storage.AvatarStore
	jwt     *token.JWTManager
}

func NewHandler(users *service.UserService, apiKeys *service.ApiKeyService, avatars *storage.AvatarStore, jwt *token.JWTManager) *Handler {
	return &Handler{
		users:   users,
		apiKeys: apiKeys,
		avatars: avatars,
		jwt:     jwt,
	}
}

// Routes wires every account operation to its endpoint.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/validate-email", h.validateEmail)
		r.Post("/verify-otp", h.verifyOtp)
		r.Post("/forgot-password", h.forgotPassword)
		r.Post("/reset-password", h.resetPassword)
		r.Get("/verify-email", h.verifyEmail)
		r.Post("/resend-verification", h.resendVerification)
		r.Post("/google/auth", h.googleAuth)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Get("/profile", h.getProfile)
			r.Put("/profile", h.updateProfile)
			r.Post("/change-password", h.changePassword)
			r.Post("/create-password", h.createPassword)
			r.Delete("/google-id", h.deleteGoogleId)
			r.Post("/onboard-complete", h.onboardComplete)
			r.Post("/create-api-key", h.createApiKey)
			r.Get("/get-api-key", h.getApiKey)
			r.Post("/deactivate-api-key", h.deactivateApiKey)
		})

		// Programmatic access: the API key stands in for a session.
		r.Group(func(r chi.Router) {
			r.Use(h.requireApiKey)
			r.Get("/me", h.getProfile)
		})
	})

	return r
}

func decodeBody(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		Email       string  `json:"email"`
		Password    string  `json:"password"`
		EmailAlerts bool    `json:"email_alerts"`
		GoogleID    *string `json:"google_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		EmailAlerts: req.EmailAlerts,
		GoogleID:    req.GoogleID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "User registered successfully. Please check your email to verify your account.", user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	user, sessionToken, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", map[string]interface{}{
		"user":  user,
		"token": sessionToken,
	})
}

func (h *Handler) validateEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	result, err := h.users.ValidateEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	message := ""
	if !result.PasswordAvailable {
		message = "An OTP has been sent to your email to set up your password."
	}
	writeData(w, http.StatusOK, message, result)
}

func (h *Handler) verifyOtp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Otp   string `json:"otp"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	user, sessionToken, err := h.users.VerifyOtp(r.Context(), req.Email, req.Otp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", map[string]interface{}{
		"user":  user,
		"token": sessionToken,
	})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	user, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", user)
}

// updateProfile accepts either a JSON body with the mutable fields or a
// multipart form carrying an avatar image. The image is uploaded to object
// storage here and only the resulting URL reaches the service layer.
func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var upd repository.ProfileUpdate
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
			writeMessage(w, http.StatusBadRequest, false, "Invalid multipart body")
			return
		}
		if name := r.FormValue("name"); name != "" {
			upd.Name = &name
		}
		if v := r.FormValue("email_alerts"); v != "" {
			alerts := v == "true"
			upd.EmailAlerts = &alerts
		}
		if file, header, err := r.FormFile("avatar"); err == nil {
			defer file.Close()
			if h.avatars == nil {
				writeMessage(w, http.StatusBadRequest, false, "Avatar uploads are not configured")
				return
			}
			data, err := io.ReadAll(io.LimitReader(file, maxAvatarSize))
			if err != nil {
				writeMessage(w, http.StatusBadRequest, false, "Failed to read avatar file")
				return
			}
			url, err := h.avatars.Upload(r.Context(), data, header.Filename, header.Header.Get("Content-Type"))
			if err != nil {
				writeError(w, err)
				return
			}
			upd.AvatarURL = &url
		}
	} else {
		var req struct {
			Name        *string `json:"name"`
			EmailAlerts *bool   `json:"email_alerts"`
			AvatarURL   *string `json:"avatar_url"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
			return
		}
		upd.Name = req.Name
		upd.EmailAlerts = req.EmailAlerts
		upd.AvatarURL = req.AvatarURL
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", user)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	if err := h.users.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Password reset link sent to your email")
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	if err := h.users.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Password has been reset successfully")
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	if err := h.users.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Password changed successfully")
}

func (h *Handler) createPassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	if err := h.users.CreatePassword(r.Context(), userID, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Password created successfully")
}

func (h *Handler) deleteGoogleId(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	if err := h.users.DeleteGoogleId(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Google account unlinked successfully")
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	tokenValue := r.URL.Query().Get("token")
	user, err := h.users.VerifyEmail(r.Context(), tokenValue)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Email verified successfully", user)
}

func (h *Handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	if err := h.users.ResendVerificationEmail(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Verification email sent successfully")
}

func (h *Handler) googleAuth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"accessToken"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	user, sessionToken, isNew, err := h.users.GoogleAuth(r.Context(), req.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}
	message := "Google authentication successful"
	if isNew {
		message = "Account created via Google"
	}
	writeData(w, http.StatusOK, message, map[string]interface{}{
		"user":  user,
		"token": sessionToken,
	})
}

func (h *Handler) onboardComplete(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	if err := h.users.OnboardComplete(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Onboarding completed")
}

func (h *Handler) createApiKey(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	key, err := h.apiKeys.Create(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "API key created", key)
}

func (h *Handler) getApiKey(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	key, err := h.apiKeys.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if key == nil {
		writeMessage(w, http.StatusNotFound, false, "No active API key found")
		return
	}
	writeData(w, http.StatusOK, "", key)
}

func (h *Handler) deactivateApiKey(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	var req struct {
		KeyID string `json:"key_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	if err := h.apiKeys.Deactivate(r.Context(), req.KeyID, userID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "API key deactivated")
}
