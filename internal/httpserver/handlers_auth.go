package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authsvc "storefront-api/internal/service/auth"
	profilesvc "storefront-api/internal/service/profile"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) register(c *gin.Context) {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	u, err := h.deps.Auth.Register(c.Request.Context(), authsvc.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Registered", u)
}

func (h *handlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	token, u, err := h.deps.Auth.Login(c.Request.Context(), authsvc.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Logged in", gin.H{"token": "Bearer " + token, "user": u})
}

func (h *handlers) getProfile(c *gin.Context) {
	u, err := h.deps.Profile.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Profile", u)
}

func (h *handlers) updateProfile(c *gin.Context) {
	var req profilesvc.UpdateInput
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.logger, err)
		return
	}
	u, err := h.deps.Profile.Update(c.Request.Context(), currentUser(c), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated", u)
}
