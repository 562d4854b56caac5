package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReceiptRepository stores analyzed receipts with their items and recommendations
type ReceiptRepository struct {
	db *pgxpool.Pool
}

// NewReceiptRepository creates a repository over the pool
func NewReceiptRepository(db *pgxpool.Pool) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

const insertReceiptSQL = `
	INSERT INTO receipts (
		id, retailer, analyzed_at, total_weight_kg, total_co2, co2_per_kg, tier,
		low_count, medium_count, high_count, matched_count, unmatched_count, green_points
	)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

const insertItemSQL = `
	INSERT INTO receipt_items (
		receipt_id, line_no, name, unit_price, quantity, ocr_confidence,
		matched_name, canonical_category, canonical_subcategory, category_confidence, brand_id,
		co2_factor, co2_source, is_local, eco_packaging, confidence,
		matched, unit, weight_kg, total_co2,
		tier, is_eco, threshold_low, threshold_medium, threshold_high, green_points
	)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)`

const insertRecommendationSQL = `
	INSERT INTO recommendations (
		receipt_id, item_position, alt_rank, name, co2_per_kg, brand, category, source_retailer, similarity_score
	)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

// SaveReceipt writes the receipt, its items and their recommendations in one transaction
func (r *ReceiptRepository) SaveReceipt(ctx context.Context, boleta *domain.AnalyzedBoleta) error {
	if boleta == nil {
		return fmt.Errorf("%w: nil receipt", domain.ErrInvalidRequest)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	s := boleta.Summary
	if _, err := tx.Exec(ctx, insertReceiptSQL,
		boleta.ID, boleta.Retailer, boleta.AnalyzedAt,
		s.TotalWeightKg, s.TotalCO2, s.CO2PerKg, string(s.Tier),
		s.LowCount, s.MediumCount, s.HighCount, s.MatchedCount, s.UnmatchedCount, s.GreenPoints,
	); err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}

	batch := &pgx.Batch{}
	for pos, item := range boleta.Items {
		v := item.Verdict
		batch.Queue(insertItemSQL,
			boleta.ID, pos, item.Name, item.UnitPrice, item.Quantity, item.OCRConfidence,
			item.MatchedName, item.CanonicalCategory, item.CanonicalSubcategory, item.CategoryConfidence, item.BrandID,
			item.CO2FactorPerUnit, string(item.CO2Source), item.IsLocal, item.HasEcoPackaging, item.Confidence,
			item.Matched, item.Unit, item.WeightKg, item.TotalCO2,
			string(v.Tier), v.IsEco, v.ThresholdsUsed.Low, v.ThresholdsUsed.Medium, finiteOrNil(v.ThresholdsUsed.High), item.GreenPoints,
		)
		for rank, alt := range item.Alternatives {
			batch.Queue(insertRecommendationSQL,
				boleta.ID, pos, rank, alt.Name, alt.CO2PerKg, alt.Brand, alt.Category, alt.SourceRetailer, alt.SimilarityScore,
			)
		}
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert items: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetReceipt loads a stored receipt. A missing id yields domain.ErrReceiptNotFound.
func (r *ReceiptRepository) GetReceipt(ctx context.Context, id uuid.UUID) (*domain.AnalyzedBoleta, error) {
	boleta := &domain.AnalyzedBoleta{}
	var tier string
	s := &boleta.Summary

	err := r.db.QueryRow(ctx, `
		SELECT id, retailer, analyzed_at, total_weight_kg, total_co2, co2_per_kg, tier,
		       low_count, medium_count, high_count, matched_count, unmatched_count, green_points
		FROM receipts
		WHERE id = $1
	`, id).Scan(
		&boleta.ID, &boleta.Retailer, &boleta.AnalyzedAt,
		&s.TotalWeightKg, &s.TotalCO2, &s.CO2PerKg, &tier,
		&s.LowCount, &s.MediumCount, &s.HighCount, &s.MatchedCount, &s.UnmatchedCount, &s.GreenPoints,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select receipt: %w", err)
	}
	s.Tier = domain.ImpactTier(tier)
	boleta.AnalyzedAt = boleta.AnalyzedAt.UTC()

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.attachRecommendations(ctx, id, items); err != nil {
		return nil, err
	}
	boleta.Items = items

	return boleta, nil
}

func (r *ReceiptRepository) loadItems(ctx context.Context, id uuid.UUID) ([]domain.AnalyzedItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT name, unit_price, quantity, ocr_confidence,
		       matched_name, canonical_category, canonical_subcategory, category_confidence, brand_id,
		       co2_factor, co2_source, is_local, eco_packaging, confidence,
		       matched, unit, weight_kg, total_co2,
		       tier, is_eco, threshold_low, threshold_medium, threshold_high, green_points
		FROM receipt_items
		WHERE receipt_id = $1
		ORDER BY line_no
	`, id)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.AnalyzedItem, 0)
	for rows.Next() {
		var (
			item   domain.AnalyzedItem
			source string
			tier   string
			high   *float64
		)
		if err := rows.Scan(
			&item.Name, &item.UnitPrice, &item.Quantity, &item.OCRConfidence,
			&item.MatchedName, &item.CanonicalCategory, &item.CanonicalSubcategory, &item.CategoryConfidence, &item.BrandID,
			&item.CO2FactorPerUnit, &source, &item.IsLocal, &item.HasEcoPackaging, &item.Confidence,
			&item.Matched, &item.Unit, &item.WeightKg, &item.TotalCO2,
			&tier, &item.Verdict.IsEco, &item.Verdict.ThresholdsUsed.Low, &item.Verdict.ThresholdsUsed.Medium, &high, &item.GreenPoints,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.CO2Source = domain.CO2Source(source)
		item.Verdict.Tier = domain.ImpactTier(tier)
		item.Verdict.CO2PerKg = item.CO2FactorPerUnit
		item.Verdict.ThresholdsUsed.High = math.Inf(1)
		if high != nil {
			item.Verdict.ThresholdsUsed.High = *high
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}

func (r *ReceiptRepository) attachRecommendations(ctx context.Context, id uuid.UUID, items []domain.AnalyzedItem) error {
	rows, err := r.db.Query(ctx, `
		SELECT item_position, name, co2_per_kg, brand, category, source_retailer, similarity_score
		FROM recommendations
		WHERE receipt_id = $1
		ORDER BY item_position, alt_rank
	`, id)
	if err != nil {
		return fmt.Errorf("select recommendations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pos int
			alt domain.RecommendedAlternative
		)
		if err := rows.Scan(&pos, &alt.Name, &alt.CO2PerKg, &alt.Brand, &alt.Category, &alt.SourceRetailer, &alt.SimilarityScore); err != nil {
			return fmt.Errorf("scan recommendation: %w", err)
		}
		if pos >= 0 && pos < len(items) {
			items[pos].Alternatives = append(items[pos].Alternatives, alt)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate recommendations: %w", err)
	}

	return nil
}

// finiteOrNil stores an infinite bound as SQL NULL
func finiteOrNil(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
