package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.ApiService/middleware"
	logger "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Logger"
	api_models "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models/api"
	interfaces "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FlapController serves stored flap history to portal users
type FlapController struct {
	flaps          interfaces.FlapRepository
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewFlapController creates a new flap controller
func NewFlapController(flaps interfaces.FlapRepository, log *logger.Logger, authMiddleware *middleware.AuthMiddleware) *FlapController {
	return &FlapController{
		flaps:          flaps,
		logger:         log,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the flap routes with Gin
func (c *FlapController) RegisterRoutes(router *gin.Engine) {
	users := router.Group("/api/users")
	users.GET("/flap/search/:id",
		c.authMiddleware.Authenticate(),
		c.authMiddleware.RequireRole("doctor", "hospital"),
		c.GetFlapByPatientID,
	)
}

func (c *FlapController) GetFlapByPatientID(ctx *gin.Context) {
	patientID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patient id"})
		return
	}

	params := interfaces.FlapQueryParams{
		PatientID: patientID,
		Page:      queryInt(ctx, "page"),
		Limit:     queryInt(ctx, "limit"),
	}.Normalized()

	records, total, err := c.flaps.ListByPatient(ctx.Request.Context(), params)
	if err != nil {
		c.logger.Logger.Error().Err(err).Str("patient_id", patientID.Hex()).Msg("Failed to load flap history")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Server error", "details": err.Error()})
		return
	}

	if len(records) == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No flap data found for this patient."})
		return
	}

	limit := int64(params.Limit)
	ctx.JSON(http.StatusOK, api_models.FlapPage{
		Total:      total,
		Page:       params.Page,
		TotalPages: (total + limit - 1) / limit,
		Records:    records,
	})
}

// queryInt returns 0 for a missing or unparsable value
func queryInt(ctx *gin.Context, key string) int {
	v, err := strconv.Atoi(ctx.Query(key))
	if err != nil {
		return 0
	}
	return v
}
