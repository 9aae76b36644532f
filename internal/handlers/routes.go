package handlers

import "github.com/gin-gonic/gin"

func RegisterChatRoutes(r gin.IRouter, h *ChatHandler) {
	g := r.Group("/chat")
	g.GET("/history/:userId1/:userId2", h.GetHistory)
	g.GET("/unread/:userId/:otherUserId", h.GetUnreadCount)
	g.PUT("/mark-read", h.MarkRead)
	g.GET("/recent/:userId", h.GetRecentChats)
	g.POST("/send", h.PostMessage)
	g.GET("/online", h.GetOnline)
}

func RegisterConsultationRoutes(r gin.IRouter, h *ConsultationHandler) {
	g := r.Group("/consultations")
	g.POST("/book", h.Book)
	g.GET("/doctor/:doctorId", h.ListForDoctor)
	g.GET("/doctor/:doctorId/status/:status", h.ListByStatus)
	g.GET("/doctor/:doctorId/next", h.Next)
	g.PUT("/doctor/:doctorId/patient/:patientId/cancel", h.Cancel)
	g.PUT("/status", h.UpdateStatus)
	g.GET("/patient/:patientId/history", h.PatientHistory)
	g.GET("/stats", h.Stats)
}
