package handlers

import "github.com/gin-gonic/gin"

// SetupRoutes mounts the API under /api/v1. auth guards the routes that
// write to the ledger.
func SetupRoutes(r *gin.Engine, events *EventHandler, checkins *CheckinHandler, stats *StatsHandler, health *HealthHandler, auth gin.HandlerFunc) {
	api := r.Group("/api/v1")
	{
		// Event search
		api.GET("/events/nearby", events.GetNearby)
		api.GET("/events/nearby.ics", events.GetNearbyICS)

		// Check-ins
		api.POST("/checkins", auth, checkins.CheckIn)
		api.GET("/events/:id/checkins/:participantId", checkins.GetCheckIn)
		api.PATCH("/events/:id/checkins/:participantId/metadata", auth, checkins.CorrectMetadata)

		// Attendance statistics
		api.GET("/events/:id/stats", stats.GetEventStats)
		api.GET("/venues/:id/stats", stats.GetVenueStats)
		api.GET("/participants/repeat", stats.GetRepeatAttendees)
		api.GET("/checkins/patterns", stats.GetTimePatterns)

		api.GET("/health/db", health.Database)
	}

	r.GET("/health", health.Health)
}
