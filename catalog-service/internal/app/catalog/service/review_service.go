package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"subvault/catalog-service/internal/app/catalog/entity"
	"subvault/catalog-service/internal/app/catalog/repository"
	"subvault/catalog-service/internal/app/catalog/util"
	"subvault/pkg/logger"
	"subvault/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrReviewNotFound = errors.New("review not found")
)

// ReviewService обрабатывает жизненный цикл отзывов и пересчет рейтинга
// Политика модерации задается одним флагом конфигурации, а не
// расхождением кодовых путей: autoApprove действует для всех отзывов
type ReviewService struct {
	reviewRepo    repository.ReviewRepository
	productRepo   repository.ProductRepository
	kafkaProducer util.MessagePublisher
	autoApprove   bool
}

// NewReviewService создает новый сервис отзывов с внедрением зависимостей
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	kafkaProducer util.MessagePublisher,
	autoApprove bool,
) *ReviewService {
	return &ReviewService{
		reviewRepo:    reviewRepo,
		productRepo:   productRepo,
		kafkaProducer: kafkaProducer,
		autoApprove:   autoApprove,
	}
}

// CreateReview создает отзыв от имени пользователя
// При auto-approve отзыв сразу попадает в агрегат рейтинга
func (s *ReviewService) CreateReview(ctx context.Context, userID string, req *entity.CreateReviewRequest) (*entity.Review, error) {
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to verify product: %w", err)
	}

	review := &entity.Review{
		ProductID:  productID,
		UserID:     userID,
		UserName:   req.UserName,
		Rating:     req.Rating,
		Title:      req.Title,
		Text:       req.Text,
		IsApproved: s.autoApprove,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	metrics.ReviewsCreated.WithLabelValues(strconv.FormatBool(review.IsApproved)).Inc()

	// Пересчет рейтинга - часть операции: пока агрегат не записан,
	// одобренный отзыв не считается принятым
	if review.IsApproved {
		if err := s.recalculateRating(ctx, productID); err != nil {
			return nil, err
		}
		s.publishReviewApproved(ctx, review)
	}

	return review, nil
}

// ApproveReview одобряет отзыв и пересчитывает агрегат рейтинга товара
func (s *ReviewService) ApproveReview(ctx context.Context, id primitive.ObjectID) (*entity.Review, error) {
	review, err := s.reviewRepo.SetApproval(ctx, id, true)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to approve review: %w", err)
	}

	if err := s.recalculateRating(ctx, review.ProductID); err != nil {
		return nil, err
	}

	s.publishReviewApproved(ctx, review)

	return review, nil
}

// UnapproveReview снимает одобрение и пересчитывает агрегат
// Рейтинг не остается устаревшим после исключения отзыва из выборки
func (s *ReviewService) UnapproveReview(ctx context.Context, id primitive.ObjectID) (*entity.Review, error) {
	review, err := s.reviewRepo.SetApproval(ctx, id, false)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to unapprove review: %w", err)
	}

	if err := s.recalculateRating(ctx, review.ProductID); err != nil {
		return nil, err
	}

	return review, nil
}

// DeleteReview удаляет отзыв и пересчитывает агрегат, если отзыв был одобрен
func (s *ReviewService) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to get review: %w", err)
	}

	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if review.IsApproved {
		if err := s.recalculateRating(ctx, review.ProductID); err != nil {
			return err
		}
	}

	return nil
}

// GetProductReviewsAdmin возвращает отзывы товара независимо от модерации
func (s *ReviewService) GetProductReviewsAdmin(ctx context.Context, productID primitive.ObjectID, limit int) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.GetByProductID(ctx, productID, false, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	return reviews, nil
}

// recalculateRating пересчитывает rating/total_reviews товара
// по текущему множеству одобренных отзывов и пишет оба поля одной операцией
// Ноль одобренных отзывов сбрасывает агрегат в 0, а не оставляет старое значение
func (s *ReviewService) recalculateRating(ctx context.Context, productID primitive.ObjectID) error {
	summary, err := s.reviewRepo.AggregateRating(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to aggregate rating: %w", err)
	}

	rating := RoundRating(summary.Rating)

	if err := s.productRepo.UpdateRating(ctx, productID, rating, summary.TotalReviews); err != nil {
		return fmt.Errorf("failed to write rating rollup: %w", err)
	}

	return nil
}

// publishReviewApproved отправляет событие REVIEW_APPROVED в Kafka
func (s *ReviewService) publishReviewApproved(ctx context.Context, review *entity.Review) {
	event := entity.ReviewEvent{
		EventType: "REVIEW_APPROVED",
		ReviewID:  review.ID.Hex(),
		ProductID: review.ProductID.Hex(),
		UserID:    review.UserID,
		Rating:    review.Rating,
		Timestamp: time.Now(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal review event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.ReviewID, eventData); err != nil {
		// Отзыв уже записан, проблемы с Kafka не критичны
		logger.Warn().Err(err).Msg("Failed to publish review approved event")
	}
}
