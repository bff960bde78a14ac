package risk

import (
	"context"

	"liquidityguard/internal/models"

	"go.uber.org/zap"
)

// Assessor - интерфейс оценщика риска
//
// Позволяет подменять движок правил внешним (символьным) оценщиком
// без изменения Position Watcher.
type Assessor interface {
	Assess(ctx context.Context, pos *models.Position, market models.MarketSnapshot, timeToLiq int64) (models.Assessment, error)
}

// RuleEngine - встроенный оценщик на детерминированных правилах
// Всегда доступен, не имеет внешних зависимостей
type RuleEngine struct{}

// NewRuleEngine создает встроенный оценщик
func NewRuleEngine() *RuleEngine {
	return &RuleEngine{}
}

// Assess оценивает позицию по встроенным правилам
func (e *RuleEngine) Assess(_ context.Context, pos *models.Position, market models.MarketSnapshot, timeToLiq int64) (models.Assessment, error) {
	return Assess(pos, market, timeToLiq), nil
}

// FallbackAssessor оборачивает внешний оценщик встроенными правилами
//
// Любая ошибка внешнего оценщика деградирует в оценку по правилам:
// мониторинг не должен останавливаться из-за недоступности коллаборатора.
type FallbackAssessor struct {
	primary  Assessor
	fallback *RuleEngine
	logger   *zap.Logger
}

// NewFallbackAssessor создает оценщик с деградацией на правила
func NewFallbackAssessor(primary Assessor, logger *zap.Logger) *FallbackAssessor {
	return &FallbackAssessor{
		primary:  primary,
		fallback: NewRuleEngine(),
		logger:   logger,
	}
}

// Assess пытается использовать внешний оценщик, при ошибке - правила
func (f *FallbackAssessor) Assess(ctx context.Context, pos *models.Position, market models.MarketSnapshot, timeToLiq int64) (models.Assessment, error) {
	if f.primary != nil {
		assessment, err := f.primary.Assess(ctx, pos, market, timeToLiq)
		if err == nil {
			return assessment, nil
		}
		if f.logger != nil {
			f.logger.Warn("primary assessor failed, falling back to rule engine",
				zap.String("position_id", pos.ID),
				zap.Error(err))
		}
	}
	return f.fallback.Assess(ctx, pos, market, timeToLiq)
}
