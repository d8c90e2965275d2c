package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
	"github.com/dmitrijs2005/tubeauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	UserName string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	UserName string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
}

type loginResponse struct {
	User         *models.PublicUser `json:"user"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

func (s *Server) setSessionCookies(c *gin.Context, pair *models.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.AccessTokenCookieName, pair.AccessToken, int(s.cookies.AccessTTL.Seconds()), "/", "", s.cookies.Secure, true)
	c.SetCookie(common.RefreshTokenCookieName, pair.RefreshToken, int(s.cookies.RefreshTTL.Seconds()), "/", "", s.cookies.Secure, true)
}

func (s *Server) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.AccessTokenCookieName, "", -1, "/", "", s.cookies.Secure, true)
	c.SetCookie(common.RefreshTokenCookieName, "", -1, "/", "", s.cookies.Secure, true)
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.users.Register(c.Request.Context(), services.RegisterInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	// 201 on the wire, 200 in the body, as existing clients expect
	c.JSON(http.StatusCreated, envelope{StatusCode: http.StatusOK, Data: user, Message: "User registered successfully"})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.users.Login(c.Request.Context(), services.LoginInput(req))
	if err != nil {
		respondError(c, err)
		return
	}

	s.setSessionCookies(c, res.Tokens)
	respond(c, http.StatusOK, loginResponse{
		User:         res.User,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	}, "User logged in successfully")
}

func (s *Server) refresh(c *gin.Context) {
	token, _ := c.Cookie(common.RefreshTokenCookieName)
	if token == "" {
		var req refreshRequest
		// an absent or unreadable body just means no token
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}

	pair, err := s.users.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			respondMessage(c, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		respondError(c, err)
		return
	}

	s.setSessionCookies(c, pair)
	respond(c, http.StatusOK, pair, "Access token refreshed")
}

func (s *Server) logout(c *gin.Context) {
	user, _ := Principal(c)
	if err := s.users.Logout(c.Request.Context(), user.ID); err != nil {
		respondError(c, err)
		return
	}
	s.clearSessionCookies(c)
	respond(c, http.StatusOK, nil, "User logged out")
}

func (s *Server) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, _ := Principal(c)
	if err := s.users.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Password changed successfully")
}

func (s *Server) currentUser(c *gin.Context) {
	user, _ := Principal(c)
	respond(c, http.StatusOK, user.Sanitize(), "Current user fetched successfully")
}

func (s *Server) updateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, _ := Principal(c)
	updated, err := s.users.UpdateAccount(c.Request.Context(), user.ID, services.UpdateAccountInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, updated, "Account details updated successfully")
}
