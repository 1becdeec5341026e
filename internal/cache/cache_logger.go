package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateExamCache invalidates all exam-related caches
func InvalidateExamCache(ctx context.Context, cm *CacheManager, examID uint) {
	SafeDelete(ctx, cm.Exam,
		fmt.Sprintf("id:%d", examID),
		fmt.Sprintf("details:%d", examID),
		fmt.Sprintf("taker:%d", examID))

	SafeInvalidatePattern(ctx, cm.Exam, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("exam:%d:*", examID))
}

// InvalidateQuestionCache invalidates all question-related caches. Exam
// payload caches embed question content, so those go too.
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, questionID uint) {
	SafeDelete(ctx, cm.Question, fmt.Sprintf("id:%d", questionID))
	SafeInvalidatePattern(ctx, cm.Question, "list:*")
	SafeDelete(ctx, cm.Question, "categories")
	SafeInvalidatePattern(ctx, cm.Exam, "details:*")
	SafeInvalidatePattern(ctx, cm.Exam, "taker:*")
}
