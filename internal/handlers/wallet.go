package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func registerWalletRoutes(r *gin.Engine, s *services) {
	r.GET("/wallet", func(c *gin.Context) {
		uid, ok := userID(c)
		if !ok {
			return
		}
		w, err := s.wallets.Get(c.Request.Context(), uid)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderWallet(w))
	})
}
