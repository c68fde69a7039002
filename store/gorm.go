package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/orgsec/cleargate/internal/slogging"
	"github.com/orgsec/cleargate/internal/uuidgen"
	"github.com/orgsec/cleargate/policy"
	"github.com/orgsec/cleargate/sso"
)

// Open connects to PostgreSQL and migrates the security tables
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&gormSSOConfiguration{}, &gormSecurityPolicy{}, &gormSecurityEvent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate security tables: %w", err)
	}
	return db, nil
}

type gormSSOConfiguration struct {
	ID             string       `gorm:"primaryKey"`
	OrganizationID string       `gorm:"index"`
	ProviderType   string       `gorm:"size:32"`
	ProviderName   string       `gorm:"size:255"`
	Metadata       sso.Metadata `gorm:"serializer:json"`
	Active         bool         `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (gormSSOConfiguration) TableName() string { return "sso_configurations" }

type gormSecurityPolicy struct {
	ID             string              `gorm:"primaryKey"`
	OrganizationID string              `gorm:"index"`
	Name           string              `gorm:"size:255"`
	Description    string
	Type           string              `gorm:"size:32;index"`
	Config         policy.PolicyConfig `gorm:"serializer:json"`
	Active         bool                `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (gormSecurityPolicy) TableName() string { return "security_policies" }

type gormSecurityEvent struct {
	ID             string         `gorm:"primaryKey"`
	OrganizationID string         `gorm:"index"`
	UserID         string         `gorm:"index"`
	Type           string         `gorm:"size:32;index"`
	Severity       string         `gorm:"size:16"`
	Description    string
	Metadata       map[string]any `gorm:"serializer:json"`
	IPAddress      string         `gorm:"size:64"`
	UserAgent      string
	Location       string         `gorm:"size:128"`
	CreatedAt      time.Time      `gorm:"index"`
}

func (gormSecurityEvent) TableName() string { return "security_events" }

// GormSSOConfigurationStore implements SSOConfigurationStore with GORM
type GormSSOConfigurationStore struct {
	db *gorm.DB
}

// NewGormSSOConfigurationStore creates a GORM-backed configuration store
func NewGormSSOConfigurationStore(db *gorm.DB) *GormSSOConfigurationStore {
	return &GormSSOConfigurationStore{db: db}
}

func (s *GormSSOConfigurationStore) ListByOrganization(ctx context.Context, orgID string) ([]sso.Configuration, error) {
	var rows []gormSSOConfiguration
	if err := s.db.WithContext(ctx).Where("organization_id = ?", orgID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list SSO configurations: %w", err)
	}
	out := make([]sso.Configuration, 0, len(rows))
	for _, row := range rows {
		out = append(out, ssoConfigFromRow(row))
	}
	return out, nil
}

func (s *GormSSOConfigurationStore) ActiveByOrganization(ctx context.Context, orgID string) (*sso.Configuration, error) {
	var row gormSSOConfiguration
	err := s.db.WithContext(ctx).Where("organization_id = ? AND active", orgID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active SSO configuration: %w", err)
	}
	cfg := ssoConfigFromRow(row)
	return &cfg, nil
}

func (s *GormSSOConfigurationStore) Get(ctx context.Context, id string) (*sso.Configuration, error) {
	var row gormSSOConfiguration
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load SSO configuration: %w", err)
	}
	cfg := ssoConfigFromRow(row)
	return &cfg, nil
}

func (s *GormSSOConfigurationStore) Create(ctx context.Context, cfg *sso.Configuration) error {
	if cfg.ID == "" {
		cfg.ID = uuidgen.MustNewForEntity(uuidgen.EntityTypeConfiguration).String()
	}
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	row := ssoConfigToRow(*cfg)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create SSO configuration: %w", err)
	}
	return nil
}

func (s *GormSSOConfigurationStore) Update(ctx context.Context, cfg *sso.Configuration) error {
	cfg.UpdatedAt = time.Now().UTC()
	row := ssoConfigToRow(*cfg)
	result := s.db.WithContext(ctx).Model(&gormSSOConfiguration{}).Where("id = ?", cfg.ID).Updates(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to update SSO configuration: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormSSOConfigurationStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&gormSSOConfiguration{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete SSO configuration: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ActivateExclusively marks one configuration active and every sibling of
// the organization inactive in a single transaction
func (s *GormSSOConfigurationStore) ActivateExclusively(ctx context.Context, orgID, id string) error {
	logger := slogging.Get()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		if err := tx.Model(&gormSSOConfiguration{}).
			Where("organization_id = ? AND id <> ?", orgID, id).
			Updates(map[string]any{"active": false, "updated_at": now}).Error; err != nil {
			return err
		}
		result := tx.Model(&gormSSOConfiguration{}).
			Where("organization_id = ? AND id = ?", orgID, id).
			Updates(map[string]any{"active": true, "updated_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to activate SSO configuration: %w", err)
	}
	logger.Info("Activated SSO configuration id=%v org_id=%v", id, orgID)
	return nil
}

func ssoConfigToRow(cfg sso.Configuration) gormSSOConfiguration {
	return gormSSOConfiguration{
		ID:             cfg.ID,
		OrganizationID: cfg.OrganizationID,
		ProviderType:   string(cfg.ProviderType),
		ProviderName:   cfg.ProviderName,
		Metadata:       cfg.Metadata,
		Active:         cfg.Active,
		CreatedAt:      cfg.CreatedAt,
		UpdatedAt:      cfg.UpdatedAt,
	}
}

func ssoConfigFromRow(row gormSSOConfiguration) sso.Configuration {
	return sso.Configuration{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		ProviderType:   sso.ProviderType(row.ProviderType),
		ProviderName:   row.ProviderName,
		Metadata:       row.Metadata,
		Active:         row.Active,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

// GormSecurityPolicyStore implements SecurityPolicyStore with GORM
type GormSecurityPolicyStore struct {
	db *gorm.DB
}

// NewGormSecurityPolicyStore creates a GORM-backed policy store
func NewGormSecurityPolicyStore(db *gorm.DB) *GormSecurityPolicyStore {
	return &GormSecurityPolicyStore{db: db}
}

func (s *GormSecurityPolicyStore) ListByOrganization(ctx context.Context, orgID string) ([]policy.SecurityPolicy, error) {
	return s.list(ctx, s.db.Where("organization_id = ?", orgID))
}

func (s *GormSecurityPolicyStore) ListActiveByOrganization(ctx context.Context, orgID string) ([]policy.SecurityPolicy, error) {
	return s.list(ctx, s.db.Where("organization_id = ? AND active", orgID))
}

func (s *GormSecurityPolicyStore) list(ctx context.Context, query *gorm.DB) ([]policy.SecurityPolicy, error) {
	var rows []gormSecurityPolicy
	if err := query.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list security policies: %w", err)
	}
	out := make([]policy.SecurityPolicy, 0, len(rows))
	for _, row := range rows {
		out = append(out, policyFromRow(row))
	}
	return out, nil
}

func (s *GormSecurityPolicyStore) Get(ctx context.Context, id string) (*policy.SecurityPolicy, error) {
	var row gormSecurityPolicy
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load security policy: %w", err)
	}
	p := policyFromRow(row)
	return &p, nil
}

func (s *GormSecurityPolicyStore) Create(ctx context.Context, p *policy.SecurityPolicy) error {
	if p.ID == "" {
		p.ID = uuidgen.MustNewForEntity(uuidgen.EntityTypePolicy).String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	row := policyToRow(*p)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create security policy: %w", err)
	}
	return nil
}

func (s *GormSecurityPolicyStore) Update(ctx context.Context, p *policy.SecurityPolicy) error {
	p.UpdatedAt = time.Now().UTC()
	row := policyToRow(*p)
	result := s.db.WithContext(ctx).Model(&gormSecurityPolicy{}).Where("id = ?", p.ID).Updates(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to update security policy: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormSecurityPolicyStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&gormSecurityPolicy{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete security policy: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func policyToRow(p policy.SecurityPolicy) gormSecurityPolicy {
	return gormSecurityPolicy{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		Name:           p.Name,
		Description:    p.Description,
		Type:           string(p.Type),
		Config:         p.Config,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func policyFromRow(row gormSecurityPolicy) policy.SecurityPolicy {
	return policy.SecurityPolicy{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		Name:           row.Name,
		Description:    row.Description,
		Type:           policy.PolicyType(row.Type),
		Config:         row.Config,
		Active:         row.Active,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

// GormSecurityEventStore implements SecurityEventStore with GORM. Events
// are append-only; there is no update or delete path.
type GormSecurityEventStore struct {
	db *gorm.DB
}

// NewGormSecurityEventStore creates a GORM-backed event store
func NewGormSecurityEventStore(db *gorm.DB) *GormSecurityEventStore {
	return &GormSecurityEventStore{db: db}
}

func (s *GormSecurityEventStore) Create(ctx context.Context, event *policy.SecurityEvent) error {
	if event.ID == "" {
		event.ID = uuidgen.MustNewForEntity(uuidgen.EntityTypeSecurityEvent).String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	row := gormSecurityEvent{
		ID:             event.ID,
		OrganizationID: event.OrganizationID,
		UserID:         event.UserID,
		Type:           string(event.Type),
		Severity:       string(event.Severity),
		Description:    event.Description,
		Metadata:       event.Metadata,
		IPAddress:      event.IPAddress,
		UserAgent:      event.UserAgent,
		Location:       event.Location,
		CreatedAt:      event.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record security event: %w", err)
	}
	return nil
}
