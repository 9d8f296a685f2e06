package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"quiz-testing-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// TestLoader fetches a test snapshot from the backing store.
type TestLoader interface {
	LoadTest(ctx context.Context, testID string) (domain.Test, error)
}

// TestCache caches test snapshots in Redis and falls back to a loader on a miss.
// Test fields are stored as:   HSET test:{testID}:meta {field} {value}
// Questions are stored as:     HSET test:{testID}:questions {questionNo} {question json}
type TestCache struct {
	client *redis.Client
	loader TestLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewTestCache(client *redis.Client, loader TestLoader, ttl time.Duration) *TestCache {
	return &TestCache{client: client, loader: loader, ttl: ttl}
}

func (c *TestCache) GetTest(ctx context.Context, testID string) (domain.Test, error) {
	if test, ok := c.readCache(ctx, testID); ok {
		return test, nil
	}

	result, err, _ := c.sf.Do(testID, func() (interface{}, error) {
		// another caller may have filled the cache meanwhile
		if test, ok := c.readCache(ctx, testID); ok {
			return test, nil
		}

		test, err := c.loader.LoadTest(ctx, testID)
		if err != nil {
			return domain.Test{}, err
		}
		if err := c.writeCache(ctx, test); err != nil {
			log.Warn().Err(err).Str("testID", testID).Msg("cache test snapshot failed")
		}
		return test, nil
	})
	if err != nil {
		return domain.Test{}, err
	}
	return result.(domain.Test), nil
}

func (c *TestCache) TestExists(ctx context.Context, testID string) (bool, error) {
	if _, err := c.GetTest(ctx, testID); err != nil {
		if errors.Is(err, domain.ErrTestNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Invalidate drops both keys of testID.
func (c *TestCache) Invalidate(ctx context.Context, testID string) error {
	return c.client.Del(ctx, metaKey(testID), questionsKey(testID)).Err()
}

func (c *TestCache) readCache(ctx context.Context, testID string) (domain.Test, bool) {
	pipe := c.client.TxPipeline()
	metaCmd := pipe.HGetAll(ctx, metaKey(testID))
	questionsCmd := pipe.HGetAll(ctx, questionsKey(testID))
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Test{}, false
	}
	meta := metaCmd.Val()
	if len(meta) == 0 {
		return domain.Test{}, false
	}
	// the two hashes expire independently; a partial snapshot is a miss
	if want, err := strconv.Atoi(meta["question_count"]); err != nil || want != len(questionsCmd.Val()) {
		return domain.Test{}, false
	}
	test, err := buildTestFromCache(testID, meta, questionsCmd.Val())
	if err != nil {
		log.Warn().Err(err).Str("testID", testID).Msg("discarding corrupt cached test")
		return domain.Test{}, false
	}
	return test, true
}

func (c *TestCache) writeCache(ctx context.Context, test domain.Test) error {
	ttl := c.ttlWithJitter()
	if ttl <= 0 {
		return nil
	}

	fields := map[string]interface{}{
		"title":          test.Title,
		"description":    test.Description,
		"time_limit":     test.TimeLimit,
		"created_by":     test.CreatedBy,
		"created_at":     test.CreatedAt.UTC().Format(time.RFC3339Nano),
		"question_count": len(test.Questions),
	}
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, metaKey(test.ID), questionsKey(test.ID))
	pipe.HSet(ctx, metaKey(test.ID), fields)
	for _, q := range test.Questions {
		raw, err := json.Marshal(q)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, questionsKey(test.ID), strconv.Itoa(q.QuestionNo), raw)
	}
	pipe.Expire(ctx, metaKey(test.ID), ttl)
	pipe.Expire(ctx, questionsKey(test.ID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func buildTestFromCache(testID string, meta, questions map[string]string) (domain.Test, error) {
	timeLimit, err := strconv.Atoi(meta["time_limit"])
	if err != nil {
		return domain.Test{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, meta["created_at"])
	if err != nil {
		return domain.Test{}, err
	}
	test := domain.Test{
		ID:          testID,
		Title:       meta["title"],
		Description: meta["description"],
		TimeLimit:   timeLimit,
		CreatedBy:   meta["created_by"],
		CreatedAt:   createdAt,
		Questions:   make([]domain.Question, 0, len(questions)),
	}
	for _, raw := range questions {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return domain.Test{}, err
		}
		test.Questions = append(test.Questions, q)
	}
	sort.Slice(test.Questions, func(i, j int) bool {
		return test.Questions[i].QuestionNo < test.Questions[j].QuestionNo
	})
	return test, nil
}

func metaKey(testID string) string {
	return "test:" + testID + ":meta"
}

func questionsKey(testID string) string {
	return "test:" + testID + ":questions"
}

func (c *TestCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
