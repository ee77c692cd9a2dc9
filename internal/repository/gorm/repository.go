package gormrepository

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jaswa1/arbitrary-rage/internal/models"
	"github.com/jaswa1/arbitrary-rage/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- catalog -----------------------------------------------------------------

func (s *Store) UpsertProduct(ctx context.Context, item *models.Product) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.ID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"set_name",
			"kind",
			"category",
			"tcg_product_id",
			"ebay_product_id",
			"amazon_asin",
			"description",
			"image_url",
			"active",
			"featured",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var item models.Product
	err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListProducts(ctx context.Context, params repository.ListProductsParams) ([]models.Product, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyProductFilters(s.db.WithContext(ctx).Model(&models.Product{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "name")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Product
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountProducts(ctx context.Context, params repository.ListProductsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	query := applyProductFilters(s.db.WithContext(ctx).Model(&models.Product{}), params)
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func applyProductFilters(query *gorm.DB, params repository.ListProductsParams) *gorm.DB {
	if params.Kind != nil && strings.TrimSpace(*params.Kind) != "" {
		query = query.Where("kind = ?", strings.TrimSpace(*params.Kind))
	}
	if params.Category != nil && strings.TrimSpace(*params.Category) != "" {
		query = query.Where("category = ?", strings.TrimSpace(*params.Category))
	}
	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}
	if params.Search != nil && strings.TrimSpace(*params.Search) != "" {
		query = query.Where("name ILIKE ?", "%"+strings.TrimSpace(*params.Search)+"%")
	}
	return query
}

func (s *Store) ListSealedProductIDs(ctx context.Context, category *string, limit, offset int) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("kind = ?", models.ProductKindSealed).
		Where("active = ?", true)
	if category != nil && strings.TrimSpace(*category) != "" {
		query = query.Where("category = ?", strings.TrimSpace(*category))
	}
	limit = normalizeLimit(limit, 200)
	offset = normalizeOffset(offset)
	var ids []string
	if err := query.Order("id asc").Limit(limit).Offset(offset).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// --- component mappings ------------------------------------------------------

func (s *Store) UpsertComponentMappings(ctx context.Context, items []models.ComponentMapping) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sealed_product_id"}, {Name: "single_product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity",
			"guaranteed",
			"rarity",
			"pull_probability",
			"updated_at",
		}),
	}).Create(items).Error
}

func (s *Store) ListComponentMappings(ctx context.Context, sealedProductID string) ([]models.ComponentMapping, error) {
	if s == nil || s.db == nil || strings.TrimSpace(sealedProductID) == "" {
		return nil, nil
	}
	var items []models.ComponentMapping
	if err := s.db.WithContext(ctx).
		Model(&models.ComponentMapping{}).
		Where("sealed_product_id = ?", sealedProductID).
		Order("single_product_id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- price observations ------------------------------------------------------

func (s *Store) InsertPriceObservations(ctx context.Context, items []models.PriceObservation) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(items, 200).Error
}

func (s *Store) ListPriceObservations(ctx context.Context, params repository.ListObservationsParams) ([]models.PriceObservation, error) {
	if s == nil || s.db == nil || strings.TrimSpace(params.ProductID) == "" {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.PriceObservation{}).
		Where("product_id = ?", params.ProductID)
	if params.Source != nil && strings.TrimSpace(*params.Source) != "" {
		query = query.Where("source = ?", strings.TrimSpace(*params.Source))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("observed_at >= ?", *params.Since)
	}
	limit := normalizeLimit(params.Limit, 500)
	var items []models.PriceObservation
	if err := query.Order("observed_at desc").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- opportunities -----------------------------------------------------------

func (s *Store) InsertOpportunity(ctx context.Context, item *models.Opportunity) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetOpportunityByID(ctx context.Context, id string) (*models.Opportunity, error) {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var item models.Opportunity
	err := s.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Preload("SealedProduct").
		Where("id = ?", id).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetActiveOpportunityByProduct(ctx context.Context, sealedProductID string) (*models.Opportunity, error) {
	if s == nil || s.db == nil || strings.TrimSpace(sealedProductID) == "" {
		return nil, nil
	}
	var item models.Opportunity
	err := s.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("sealed_product_id = ?", sealedProductID).
		Where("status = ?", models.OpportunityStatusActive).
		Order("created_at desc").
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateOpportunitySnapshot(ctx context.Context, id string, updates map[string]any) error {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" || len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("id = ?", id).
		Where("status = ?", models.OpportunityStatusActive).
		Updates(updates).Error
}

func (s *Store) TransitionOpportunityStatus(ctx context.Context, id, fromStatus, toStatus string, updates map[string]any) (int64, error) {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return 0, nil
	}
	assign := map[string]any{
		"status":     toStatus,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range updates {
		assign[k] = v
	}
	// Guarding on the prior status makes the transition a compare-and-set:
	// a concurrent terminal transition leaves RowsAffected at zero here.
	res := s.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("id = ?", id).
		Where("status = ?", fromStatus).
		Updates(assign)
	return res.RowsAffected, res.Error
}

func (s *Store) ExpireDueOpportunities(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("status = ?", models.OpportunityStatusActive).
		Where("expires_at IS NOT NULL").
		Where("expires_at < ?", now).
		Updates(map[string]any{
			"status":     models.OpportunityStatusExpired,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (s *Store) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyOpportunityFilters(s.db.WithContext(ctx).Model(&models.Opportunity{}).Preload("SealedProduct"), params)
	if strings.TrimSpace(params.OrderBy) == "" {
		// Ranking order: margin first, confidence breaks ties.
		query = query.Order("margin_pct desc").Order("confidence desc")
	} else {
		query = applyOrder(query, params.OrderBy, params.Asc, "margin_pct")
	}
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Opportunity
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	query := applyOpportunityFilters(s.db.WithContext(ctx).Model(&models.Opportunity{}), params)
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func applyOpportunityFilters(query *gorm.DB, params repository.ListOpportunitiesParams) *gorm.DB {
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("opportunities.status = ?", strings.TrimSpace(*params.Status))
	}
	if params.Category != nil && strings.TrimSpace(*params.Category) != "" {
		query = query.Joins("JOIN products ON products.id = opportunities.sealed_product_id").
			Where("products.category = ?", strings.TrimSpace(*params.Category))
	}
	if params.MinMarginPct != nil {
		query = query.Where("margin_pct >= ?", *params.MinMarginPct)
	}
	if params.MaxMarginPct != nil {
		query = query.Where("margin_pct <= ?", *params.MaxMarginPct)
	}
	if params.MinConfidence != nil {
		query = query.Where("confidence >= ?", *params.MinConfidence)
	}
	if params.MaxRisk != nil {
		if allowed := riskCeiling(*params.MaxRisk); len(allowed) > 0 {
			query = query.Where("risk_level IN ?", allowed)
		}
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("opportunities.created_at >= ?", *params.Since)
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("opportunities.created_at <= ?", *params.Until)
	}
	return query
}

func riskCeiling(max string) []string {
	switch strings.ToLower(strings.TrimSpace(max)) {
	case models.RiskLow:
		return []string{models.RiskLow}
	case models.RiskMedium:
		return []string{models.RiskLow, models.RiskMedium}
	case models.RiskHigh:
		return []string{models.RiskLow, models.RiskMedium, models.RiskHigh}
	default:
		return nil
	}
}

func (s *Store) OpportunityStats(ctx context.Context, scope repository.StatsScope) (repository.OpportunityStats, error) {
	out := repository.OpportunityStats{
		CountsByStatus:       map[string]int64{},
		TotalPotentialProfit: decimal.Zero,
	}
	if s == nil || s.db == nil {
		return out, nil
	}

	base := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.Opportunity{})
		if scope.Category != nil && strings.TrimSpace(*scope.Category) != "" {
			query = query.Joins("JOIN products ON products.id = opportunities.sealed_product_id").
				Where("products.category = ?", strings.TrimSpace(*scope.Category))
		}
		if scope.Since != nil && !scope.Since.IsZero() {
			query = query.Where("opportunities.created_at >= ?", *scope.Since)
		}
		return query
	}

	var statusRows []struct {
		Status string
		Total  int64
	}
	if err := base().
		Select("opportunities.status AS status, COUNT(*) AS total").
		Group("opportunities.status").
		Scan(&statusRows).Error; err != nil {
		return out, err
	}
	for _, row := range statusRows {
		out.CountsByStatus[row.Status] = row.Total
	}

	var agg struct {
		AvgMargin      *float64
		AvgConfidence  *float64
		TotalProfit    decimal.Decimal
		HighConfidence int64
		LowRisk        int64
	}
	if err := base().
		Select(`
			AVG(margin_pct) AS avg_margin,
			AVG(confidence) AS avg_confidence,
			COALESCE(SUM((singles_value - sealed_price) * execution_quantity), 0) AS total_profit,
			COUNT(*) FILTER (WHERE confidence >= 0.8) AS high_confidence,
			COUNT(*) FILTER (WHERE risk_level = 'low') AS low_risk
		`).
		Scan(&agg).Error; err != nil {
		return out, err
	}
	if agg.AvgMargin != nil {
		out.AvgMarginPct = *agg.AvgMargin
	}
	if agg.AvgConfidence != nil {
		out.AvgConfidence = *agg.AvgConfidence
	}
	out.TotalPotentialProfit = agg.TotalProfit
	out.HighConfidenceCount = agg.HighConfidence
	out.LowRiskCount = agg.LowRisk
	return out, nil
}

// --- alerts ------------------------------------------------------------------

func (s *Store) InsertAlert(ctx context.Context, item *models.Alert) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

// --- system settings ---------------------------------------------------------

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Key) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"description",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var item models.SystemSetting
	err := s.db.WithContext(ctx).Model(&models.SystemSetting{}).Where("key = ?", key).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSystemSettings(ctx context.Context) ([]models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SystemSetting
	if err := s.db.WithContext(ctx).
		Model(&models.SystemSetting{}).
		Order("key asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers -----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
