package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/foi-request-api/internal/dto"
	"github.com/noah-isme/foi-request-api/internal/middleware"
	"github.com/noah-isme/foi-request-api/internal/models"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
)

func actorID(c *gin.Context) string {
	if claims := middleware.Claims(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// queryList accepts both repeated parameters and comma separated values.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func parseRequestQuery(c *gin.Context) (dto.FOIRequestQuery, error) {
	query := dto.FOIRequestQuery{Search: c.Query("search")}
	for _, raw := range queryList(c, "status") {
		status := models.RequestStatus(raw)
		if !status.Valid() {
			return dto.FOIRequestQuery{}, appErrors.Clonef(appErrors.ErrValidation, "unknown status %q", raw)
		}
		query.Statuses = append(query.Statuses, status)
	}
	for _, raw := range queryList(c, "legislation") {
		legislation := models.Legislation(strings.ToUpper(raw))
		if !legislation.Valid() {
			return dto.FOIRequestQuery{}, appErrors.Clonef(appErrors.ErrValidation, "unknown legislation %q", raw)
		}
		query.Legislations = append(query.Legislations, legislation)
	}
	return query, nil
}

func responseMeta(c *gin.Context) map[string]interface{} {
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return meta
}
