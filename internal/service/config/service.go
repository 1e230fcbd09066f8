package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
	configRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/config"
)

// ResourceConfig конфигурация ресурса на конкретную дату
type ResourceConfig struct {
	Resource     *domain.Resource
	Date         time.Time
	WorkingHours *domain.WorkingHours // nil - ресурс в этот день закрыт
	PeakRules    []domain.PeakRule
}

// IsOpen работает ли ресурс в эту дату
func (c *ResourceConfig) IsOpen() bool {
	return c.WorkingHours != nil
}

// Service собирает и проверяет конфигурацию ресурсов
// Некорректная конфигурация возвращается как domain.ErrInvalidConfig и никогда не подменяется значениями по умолчанию
type Service struct {
	configRepo      ConfigRepository
	defaultPolicies map[domain.Vertical]domain.CancellationPolicy
	logger          Logger
}

// NewService создает новый экземпляр сервиса конфигурации
// defaultPolicies - политики отмены направлений, если у ресурса нет своих ступеней
func NewService(
	configRepo ConfigRepository,
	defaultPolicies map[domain.Vertical]domain.CancellationPolicy,
	logger Logger,
) *Service {
	return &Service{
		configRepo:      configRepo,
		defaultPolicies: defaultPolicies,
		logger:          logger,
	}
}

// GetResource получает ресурс и проверяет его конфигурацию
func (s *Service) GetResource(ctx context.Context, resourceID int64) (*domain.Resource, error) {
	resource, err := s.configRepo.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, configRepo.ErrResourceNotFound) {
			s.logger.Warn("GetResource: resource id=%d not found", resourceID)
			return nil, ErrResourceNotFound
		}
		s.logger.Error("GetResource: failed to get resource id=%d: %v", resourceID, err)
		return nil, fmt.Errorf("%w: GetResource - repository error: %v", ErrInternal, err)
	}

	if err := resource.Validate(); err != nil {
		s.logger.Error("GetResource: resource id=%d misconfigured: %v", resourceID, err)
		return nil, err
	}

	return resource, nil
}

// GetResourceConfig получает ресурс, рабочие часы и пиковые правила на дату
func (s *Service) GetResourceConfig(ctx context.Context, resourceID int64, date time.Time) (*ResourceConfig, error) {
	resource, err := s.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	cfg := &ResourceConfig{
		Resource: resource,
		Date:     domain.TruncateToDate(date),
	}

	hours, err := s.configRepo.GetWorkingHours(ctx, resourceID, date.Weekday())
	switch {
	case errors.Is(err, configRepo.ErrWorkingHoursNotFound):
		s.logger.Info("GetResourceConfig: resource id=%d closed on %s", resourceID, date.Format(domain.DateFormat))
		return cfg, nil
	case err != nil:
		s.logger.Error("GetResourceConfig: failed to get working hours for resource id=%d: %v", resourceID, err)
		return nil, fmt.Errorf("%w: GetResourceConfig - working hours: %v", ErrInternal, err)
	}

	if err := hours.Validate(); err != nil {
		s.logger.Error("GetResourceConfig: resource id=%d has invalid working hours: %v", resourceID, err)
		return nil, err
	}
	cfg.WorkingHours = hours

	rules, err := s.configRepo.GetPeakRules(ctx, resourceID, date.Weekday())
	if err != nil {
		s.logger.Error("GetResourceConfig: failed to get peak rules for resource id=%d: %v", resourceID, err)
		return nil, fmt.Errorf("%w: GetResourceConfig - peak rules: %v", ErrInternal, err)
	}
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			s.logger.Error("GetResourceConfig: resource id=%d has invalid peak rule %q: %v", resourceID, rule.Name, err)
			return nil, err
		}
	}
	cfg.PeakRules = rules

	return cfg, nil
}

// GetCancellationPolicy политика отмены ресурса
// Приоритет:
// 1. Ступени, заданные для ресурса
// 2. Политика направления из конфигурации
// 3. domain.DefaultCancellationPolicy
func (s *Service) GetCancellationPolicy(ctx context.Context, resource *domain.Resource) (domain.CancellationPolicy, error) {
	policy, found, err := s.configRepo.GetCancellationPolicy(ctx, resource.ID)
	if err != nil {
		s.logger.Error("GetCancellationPolicy: failed to get policy for resource id=%d: %v", resource.ID, err)
		return domain.CancellationPolicy{}, fmt.Errorf("%w: GetCancellationPolicy - repository error: %v", ErrInternal, err)
	}

	if !found {
		var ok bool
		if policy, ok = s.defaultPolicies[resource.Vertical]; !ok {
			policy = domain.DefaultCancellationPolicy()
		}
	}

	if err := policy.Validate(); err != nil {
		s.logger.Error("GetCancellationPolicy: resource id=%d has invalid policy: %v", resource.ID, err)
		return domain.CancellationPolicy{}, err
	}

	return policy, nil
}

// GetShowtime получает сеанс вместе с ценовыми зонами зала
func (s *Service) GetShowtime(ctx context.Context, showtimeID int64) (*domain.Showtime, error) {
	showtime, err := s.configRepo.GetShowtime(ctx, showtimeID)
	if err != nil {
		if errors.Is(err, configRepo.ErrShowtimeNotFound) {
			s.logger.Warn("GetShowtime: showtime id=%d not found", showtimeID)
			return nil, ErrShowtimeNotFound
		}
		s.logger.Error("GetShowtime: failed to get showtime id=%d: %v", showtimeID, err)
		return nil, fmt.Errorf("%w: GetShowtime - repository error: %v", ErrInternal, err)
	}

	sections, err := s.configRepo.GetSeatSections(ctx, showtime.ResourceID)
	if err != nil {
		s.logger.Error("GetShowtime: failed to get seat sections for resource id=%d: %v", showtime.ResourceID, err)
		return nil, fmt.Errorf("%w: GetShowtime - repository error: %v", ErrInternal, err)
	}
	for _, section := range sections {
		if err := section.Validate(); err != nil {
			s.logger.Error("GetShowtime: resource id=%d has invalid seat section %q: %v", showtime.ResourceID, section.ID, err)
			return nil, err
		}
	}
	showtime.Sections = sections

	return showtime, nil
}
