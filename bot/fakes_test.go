package bot

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/LLMtheism-AI/Ai-Religion-Agent/models"
)

type fakeBrain struct {
	posts     []string
	postIdx   int
	postCalls int
	postErr   error
	reply     string
	replyErr  error
}

func (b *fakeBrain) GeneratePost(_ context.Context, _ []string) (string, error) {
	b.postCalls++
	if b.postErr != nil {
		return "", b.postErr
	}
	if b.postIdx >= len(b.posts) {
		return "", errors.New("fakeBrain: out of canned posts")
	}
	p := b.posts[b.postIdx]
	b.postIdx++
	return p, nil
}

func (b *fakeBrain) GenerateReply(_ context.Context, _ string) (string, error) {
	if b.replyErr != nil {
		return "", b.replyErr
	}
	if b.reply != "" {
		return b.reply, nil
	}
	return "the gnosis finds you", nil
}

type fakePlatform struct {
	nextID      int
	tweets      []string
	threads     [][]string
	replies     map[string]string
	failReplies map[string]bool
	postErr     error
	mentions    []models.Mention
	mentionsErr error
	fetchSince  string
	fetchLimit  int
	engagement  map[string]models.Engagement
	engCalls    int
}

func (p *fakePlatform) assignID() string {
	if p.nextID == 0 {
		p.nextID = 1
	}
	id := strconv.Itoa(p.nextID)
	p.nextID++
	return id
}

func (p *fakePlatform) PostTweet(_ context.Context, text string) (string, error) {
	if p.postErr != nil {
		return "", p.postErr
	}
	p.tweets = append(p.tweets, text)
	return p.assignID(), nil
}

func (p *fakePlatform) PostReply(_ context.Context, parentID, text string) (string, error) {
	if p.failReplies[parentID] {
		return "", errors.New("reply rejected")
	}
	if p.replies == nil {
		p.replies = make(map[string]string)
	}
	p.replies[parentID] = text
	return p.assignID(), nil
}

func (p *fakePlatform) PostThread(_ context.Context, texts []string) ([]string, error) {
	if p.postErr != nil {
		return nil, p.postErr
	}
	ids := make([]string, len(texts))
	for i := range texts {
		ids[i] = p.assignID()
	}
	p.threads = append(p.threads, texts)
	return ids, nil
}

func (p *fakePlatform) FetchMentions(_ context.Context, sinceID string, limit int) ([]models.Mention, error) {
	p.fetchSince = sinceID
	p.fetchLimit = limit
	if p.mentionsErr != nil {
		return nil, p.mentionsErr
	}
	return p.mentions, nil
}

func (p *fakePlatform) FetchEngagement(_ context.Context, tweetID string) (models.Engagement, error) {
	p.engCalls++
	eng, ok := p.engagement[tweetID]
	if !ok {
		return models.Engagement{}, errors.New("tweet not found")
	}
	return eng, nil
}

type fakeStore struct {
	state        models.BotState
	loadErr      error
	published    []models.PublishedItem
	postCounts   []int
	publishErr   error
	watermark    string
	replyCount   int
	repliesCalls int
	repliesErr   error
	stale        []models.PublishedItem
	staleErr     error
	staleCalls   int
	updates      map[string]models.Engagement
	stamps       int
}

func (s *fakeStore) Load(_ context.Context, _ time.Time) (models.BotState, error) {
	if s.loadErr != nil {
		return models.BotState{}, s.loadErr
	}
	return s.state, nil
}

func (s *fakeStore) RecordPublish(_ context.Context, item models.PublishedItem, postCount int) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.published = append(s.published, item)
	s.postCounts = append(s.postCounts, postCount)
	return nil
}

func (s *fakeStore) RecordReplies(_ context.Context, watermark string, count int, _ time.Time) error {
	s.repliesCalls++
	if s.repliesErr != nil {
		return s.repliesErr
	}
	s.watermark = watermark
	s.replyCount += count
	return nil
}

func (s *fakeStore) UpdateMetrics(_ context.Context, itemID string, eng models.Engagement, _ time.Time) error {
	if s.updates == nil {
		s.updates = make(map[string]models.Engagement)
	}
	s.updates[itemID] = eng
	return nil
}

func (s *fakeStore) StaleItems(_ context.Context, _ time.Time, _ time.Duration, _ int) ([]models.PublishedItem, error) {
	s.staleCalls++
	if s.staleErr != nil {
		return nil, s.staleErr
	}
	return s.stale, nil
}

func (s *fakeStore) StampMetricsRun(_ context.Context, _ time.Time) error {
	s.stamps++
	return nil
}
