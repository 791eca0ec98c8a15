// Package service assembles the core services over one AppContext.
package service

import (
	"github.com/oggyb/social-graph/internal/app"
	"github.com/oggyb/social-graph/internal/service/engagement"
	"github.com/oggyb/social-graph/internal/service/feed"
	"github.com/oggyb/social-graph/internal/service/graph"
	"github.com/oggyb/social-graph/internal/service/messaging"
	"github.com/oggyb/social-graph/internal/service/notify"
	"github.com/oggyb/social-graph/internal/service/posts"
)

// Services is the full core. Engagement and Graph share the Notify
// instance, so every notification they emit lands in the same fan-out.
type Services struct {
	Notify     *notify.Service
	Posts      *posts.Service
	Engagement *engagement.Service
	Graph      *graph.Service
	Feed       *feed.Service
	Messaging  *messaging.Service
}

func New(appCtx *app.AppContext) *Services {
	notifier := notify.NewNotifyService(appCtx)
	return &Services{
		Notify:     notifier,
		Posts:      posts.NewPostService(appCtx),
		Engagement: engagement.NewEngagementService(appCtx, notifier),
		Graph:      graph.NewGraphService(appCtx, notifier),
		Feed:       feed.NewFeedService(appCtx),
		Messaging:  messaging.NewMessagingService(appCtx),
	}
}
