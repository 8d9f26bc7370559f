package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/studentpulse-backend/internal/domain"
	"github.com/yungbote/studentpulse-backend/internal/http/response"
	"github.com/yungbote/studentpulse-backend/internal/services"
)

type StudentHandler struct {
	studentService    services.StudentService
	predictionService services.PredictionService
}

func NewStudentHandler(studentService services.StudentService, predictionService services.PredictionService) *StudentHandler {
	return &StudentHandler{studentService: studentService, predictionService: predictionService}
}

type createStudentRequest struct {
	Name                 string         `json:"name" binding:"required"`
	Email                string         `json:"email" binding:"required,email"`
	Major                string         `json:"major"`
	EnrollmentYear       *int           `json:"enrollment_year" binding:"omitempty,gte=1900,lte=2100"`
	UserID               *uuid.UUID     `json:"user_id"`
	SocioAcademicFactors map[string]any `json:"socio_academic_factors"`
	metricsRequest
}

type updateStudentRequest struct {
	Name                 *string        `json:"name" binding:"omitempty,min=1"`
	Email                *string        `json:"email" binding:"omitempty,email"`
	Major                *string        `json:"major"`
	EnrollmentYear       *int           `json:"enrollment_year" binding:"omitempty,gte=1900,lte=2100"`
	UserID               *uuid.UUID     `json:"user_id"`
	SocioAcademicFactors map[string]any `json:"socio_academic_factors"`
	metricsRequest
}

func (r updateStudentRequest) input() services.StudentInput {
	return services.StudentInput{
		UserID:               r.UserID,
		Name:                 r.Name,
		Email:                r.Email,
		Major:                r.Major,
		EnrollmentYear:       r.EnrollmentYear,
		Metrics:              r.partial(),
		SocioAcademicFactors: r.SocioAcademicFactors,
	}
}

type studentView struct {
	Student    *types.Student  `json:"student"`
	Prediction *predictionView `json:"prediction"`
}

func viewStudent(c *gin.Context, sp *services.StudentWithPrediction) studentView {
	return studentView{Student: sp.Student, Prediction: viewPrediction(c, sp.Prediction)}
}

// POST /api/students
func (h *StudentHandler) Create(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	major := req.Major
	out, err := h.studentService.Create(c.Request.Context(), services.StudentInput{
		UserID:               req.UserID,
		Name:                 &req.Name,
		Email:                &req.Email,
		Major:                &major,
		EnrollmentYear:       req.EnrollmentYear,
		Metrics:              req.partial(),
		SocioAcademicFactors: req.SocioAcademicFactors,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, viewStudent(c, out))
}

// PUT /api/students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	out, err := h.studentService.Update(c.Request.Context(), id, req.input())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, viewStudent(c, out))
}

// DELETE /api/students/:id
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "id": id})
}

// GET /api/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	out, err := h.studentService.GetWithCurrent(dbcFrom(c), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, viewStudent(c, out))
}

// GET /api/students
func (h *StudentHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	rows, err := h.studentService.List(dbcFrom(c), offset, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	views := make([]studentView, 0, len(rows))
	for _, row := range rows {
		views = append(views, viewStudent(c, row))
	}
	response.RespondOK(c, gin.H{"students": views, "offset": offset, "limit": limit})
}

// GET /api/students/count
func (h *StudentHandler) Count(c *gin.Context) {
	n, err := h.studentService.Count(dbcFrom(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"count": n})
}

// GET /api/students/by-user/:user_id
func (h *StudentHandler) GetByUserID(c *gin.Context) {
	userID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}
	s, err := h.studentService.GetByUserID(dbcFrom(c), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"student": s})
}

// GET /api/me/student
func (h *StudentHandler) GetMine(c *gin.Context) {
	s, err := h.studentService.GetMine(dbcFrom(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"student": s})
}

// PUT /api/me/student
func (h *StudentHandler) UpsertMine(c *gin.Context) {
	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	out, err := h.studentService.UpsertMyAcademicDetails(c.Request.Context(), req.input())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, viewStudent(c, out))
}

// GET /api/me/prediction
func (h *StudentHandler) GetMyPrediction(c *gin.Context) {
	dbc := dbcFrom(c)
	s, err := h.studentService.GetMine(dbc)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	p, err := h.predictionService.Current(dbc, s.ID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	respondCurrent(c, p)
}
