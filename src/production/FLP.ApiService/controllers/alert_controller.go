package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	alerting "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Alerting"
	logger "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Logger"
	api_models "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models/api"
	interfaces "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenRegistrar records push tokens
type TokenRegistrar interface {
	Register(token, ownerID string) (bool, error)
}

// AlertDispatcher raises an abnormality alert
type AlertDispatcher interface {
	Dispatch(ctx context.Context, abnormality string) (*alerting.DispatchResult, error)
}

// AlertController handles push token registration and manual abnormality alerts
type AlertController struct {
	registry   TokenRegistrar
	doctors    interfaces.DoctorRepository
	dispatcher AlertDispatcher
	logger     *logger.Logger
}

// NewAlertController creates a new alert controller. doctors may be nil, in
// which case tokens are only kept in memory.
func NewAlertController(registry TokenRegistrar, doctors interfaces.DoctorRepository, dispatcher AlertDispatcher, log *logger.Logger) *AlertController {
	return &AlertController{
		registry:   registry,
		doctors:    doctors,
		dispatcher: dispatcher,
		logger:     log.WithComponent("alert_controller"),
	}
}

// RegisterRoutes registers the alert routes with Gin
func (c *AlertController) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/savePushToken", c.SavePushToken)
		api.POST("/abnormality", c.SendAbnormality)
	}
}

func (c *AlertController) SavePushToken(ctx *gin.Context) {
	var req api_models.SavePushTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Logger.Debug().Err(err).Msg("Invalid push token body")
		missingTokenFields(ctx)
		return
	}

	added, err := c.registry.Register(req.Token, req.DoctorID)
	if err != nil {
		missingTokenFields(ctx)
		return
	}

	c.logger.Logger.Info().
		Str("doctor_id", req.DoctorID).
		Bool("new_token", added).
		Msg("Push token saved")

	c.persistDoctorToken(ctx.Request.Context(), req.DoctorID, req.Token)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Push token saved",
	})
}

func missingTokenFields(ctx *gin.Context) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Both token and doctorId are required",
	})
}

// persistDoctorToken mirrors the token onto the doctor record. Failures are logged only.
func (c *AlertController) persistDoctorToken(ctx context.Context, doctorID, token string) {
	if c.doctors == nil {
		return
	}

	id, err := primitive.ObjectIDFromHex(doctorID)
	if err != nil {
		c.logger.Logger.Debug().Str("doctor_id", doctorID).Msg("Doctor id is not an ObjectID, skipping record update")
		return
	}

	if err := c.doctors.SetPushToken(ctx, id, token); err != nil {
		if errors.Is(err, interfaces.ErrDoctorNotFound) {
			c.logger.Logger.Warn().Str("doctor_id", doctorID).Msg("Doctor not found, token kept in memory only")
			return
		}
		c.logger.Logger.Error().Err(err).Str("doctor_id", doctorID).Msg("Failed to store push token on doctor record")
	}
}

func (c *AlertController) SendAbnormality(ctx *gin.Context) {
	var req api_models.AbnormalityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil ||
		(req.Abnormality != alerting.AbnormalityYes && req.Abnormality != alerting.AbnormalityNo) {
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input. Use 'yes' or 'no'."})
		return
	}

	result, err := c.dispatcher.Dispatch(ctx.Request.Context(), req.Abnormality)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"message": "Relay call failed",
			"error":   err.Error(),
		})
		return
	}

	message := "Abnormality sent to push relay."
	if result.Skipped {
		message = "No push tokens registered, nothing sent."
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
		"result":  result,
	})
}
