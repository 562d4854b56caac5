package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/ecoboleta/backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BoletaAnalyzer runs the receipt pipeline
type BoletaAnalyzer interface {
	Analyze(ctx context.Context, req usecase.AnalyzeRequest) *domain.AnalyzedBoleta
}

// CategoryResolver maps raw retailer categories onto the taxonomy
type CategoryResolver interface {
	Normalize(raw, retailer string) domain.NormalizedCategory
}

// ImpactRater classifies a CO2e-per-kg figure
type ImpactRater interface {
	Classify(retailer, category string, co2PerKg float64) domain.ImpactVerdict
}

// RetailerResolver identifies retailers from OCR text or names
type RetailerResolver interface {
	Detect(ocrText string) string
	NormalizeName(name string) string
}

// CatalogIndexer indexes retailer products into the vector store
type CatalogIndexer interface {
	Ingest(ctx context.Context, retailer string, products []domain.CatalogProduct) (domain.IngestReport, error)
}

// Services groups the usecases served over HTTP. Nil members answer 501.
type Services struct {
	Pipeline    BoletaAnalyzer
	Receipts    domain.ReceiptRepository
	Matcher     usecase.ProductFinder
	Recommender usecase.AlternativeFinder
	Normalizer  CategoryResolver
	Inferrer    usecase.CategoryInferrer
	Classifier  ImpactRater
	Detector    RetailerResolver
	Ingestor    CatalogIndexer
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	svc Services
	log zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, logger zerolog.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: logger.With().Str("component", "http").Logger(),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     "ecoboleta-backend",
		"version":     "1.0.0",
		"persistence": h.svc.Receipts != nil,
	})
}

// AnalyzeBoleta classifies a receipt and stores it when persistence is configured
func (h *Handler) AnalyzeBoleta(c *gin.Context) {
	if h.svc.Pipeline == nil {
		notConfigured(c, "boleta analysis")
		return
	}

	var req usecase.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	boleta := h.svc.Pipeline.Analyze(c.Request.Context(), req)

	if h.svc.Receipts != nil {
		if err := h.svc.Receipts.SaveReceipt(c.Request.Context(), boleta); err != nil {
			h.log.Error().Err(err).Str("boleta_id", boleta.ID.String()).Msg("failed to store receipt")
			h.respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, boleta)
}

// GetBoleta returns a stored receipt
func (h *Handler) GetBoleta(c *gin.Context) {
	if h.svc.Receipts == nil {
		notConfigured(c, "receipt storage")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receipt id"})
		return
	}

	boleta, err := h.svc.Receipts.GetReceipt(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, boleta)
}

// MatchProduct looks a product name up in a retailer catalog
func (h *Handler) MatchProduct(c *gin.Context) {
	if h.svc.Matcher == nil {
		notConfigured(c, "product matching")
		return
	}

	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	retailer := h.resolveRetailer(req.Retailer)
	match := h.svc.Matcher.FindSimilarProduct(c.Request.Context(), req.Name, retailer, boolOrDefault(req.ValidateCO2, true))

	c.JSON(http.StatusOK, MatchResponse{Retailer: retailer, Matched: match != nil, Match: match})
}

// FindAlternatives suggests lower-footprint products
func (h *Handler) FindAlternatives(c *gin.Context) {
	if h.svc.Recommender == nil {
		notConfigured(c, "recommendations")
		return
	}

	var req AlternativesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	retailer := h.resolveRetailer(req.Retailer)
	alternatives := h.svc.Recommender.FindAlternatives(c.Request.Context(), req.Product, retailer, boolOrDefault(req.SearchOtherRetailers, true))

	c.JSON(http.StatusOK, gin.H{"retailer": retailer, "alternatives": alternatives})
}

// NormalizeCategory maps a raw retailer category onto the taxonomy
func (h *Handler) NormalizeCategory(c *gin.Context) {
	if h.svc.Normalizer == nil {
		notConfigured(c, "category normalization")
		return
	}

	var req NormalizeCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.Normalizer.Normalize(req.Category, h.resolveRetailer(req.Retailer)))
}

// InferCategory asks the LLM for the category of an unmatched product
func (h *Handler) InferCategory(c *gin.Context) {
	if h.svc.Inferrer == nil {
		notConfigured(c, "category inference")
		return
	}

	var req InferCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.Inferrer.InferCategory(c.Request.Context(), req.Name, h.resolveRetailer(req.Retailer)))
}

// ClassifyImpact returns the impact tier of a CO2e-per-kg figure
func (h *Handler) ClassifyImpact(c *gin.Context) {
	if h.svc.Classifier == nil {
		notConfigured(c, "impact classification")
		return
	}

	var req ClassifyImpactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.Classifier.Classify(h.resolveRetailer(req.Retailer), req.Category, *req.CO2PerKg))
}

// DetectSupermarket identifies the retailer of a receipt text
func (h *Handler) DetectSupermarket(c *gin.Context) {
	if h.svc.Detector == nil {
		notConfigured(c, "supermarket detection")
		return
	}

	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"retailer": h.svc.Detector.Detect(req.OCRText)})
}

// IngestCatalog indexes products into a retailer collection
func (h *Handler) IngestCatalog(c *gin.Context) {
	if h.svc.Ingestor == nil {
		notConfigured(c, "catalog ingestion")
		return
	}

	retailer := strings.ToLower(strings.TrimSpace(c.Param("retailer")))
	if !isKnownRetailer(retailer) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown retailer: " + retailer})
		return
	}

	var req IngestCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	report, err := h.svc.Ingestor.Ingest(c.Request.Context(), retailer, req.Products)
	if err != nil {
		h.log.Error().Err(err).Str("retailer", retailer).Msg("catalog ingestion failed")
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// resolveRetailer maps a retailer name to its collection
func (h *Handler) resolveRetailer(name string) string {
	if h.svc.Detector != nil {
		return h.svc.Detector.NormalizeName(name)
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// respondError maps domain errors onto HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrReceiptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}

func notConfigured(c *gin.Context, feature string) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": feature + " is not configured"})
}

func isKnownRetailer(retailer string) bool {
	for _, known := range usecase.KnownRetailers() {
		if retailer == known {
			return true
		}
	}
	return false
}
