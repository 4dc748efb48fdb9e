// community.go
//
// Haven, a mental health support backend: AI chat, intake, community and therapist matching
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of haven.
// haven is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// haven is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with haven.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"github.com/localnerve/haven/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

const (
	maxPostTitleChars   = 200
	maxPostBodyChars    = 10000
	maxCommentChars     = 5000
	maxReportChars      = 1000
	defaultPageSize     = 20
	maxPageSize         = 50
	ReportHideThreshold = 3
)

// Resolution actions for held posts
const (
	ResolveApprove = "approve"
	ResolveRemove  = "remove"
)

// Viewer is the caller of a community operation
type Viewer struct {
	UserID string
	Admin  bool
}

func (v Viewer) owns(authorID string) bool {
	return v.UserID != "" && v.UserID == authorID
}

// PostView is a post as shown to readers. Author is empty for anonymous posts.
type PostView struct {
	models.CommunityPost
	Author string `json:"authorId,omitempty"`
}

// CommentView is a comment as shown to readers
type CommentView struct {
	models.CommunityComment
	Author string `json:"authorId,omitempty"`
}

// PostDetail is a post with its published comments
type PostDetail struct {
	PostView
	Comments []CommentView `json:"comments"`
}

// PostPage is one page of a circle feed
type PostPage struct {
	Posts    []PostView `json:"posts"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
	Total    int64      `json:"total"`
}

// SubmissionResult reports where a new post or comment landed
type SubmissionResult struct {
	Post    *PostView    `json:"post,omitempty"`
	Comment *CommentView `json:"comment,omitempty"`
	Status  string       `json:"status"`
	Crisis  *CrisisInfo  `json:"crisis,omitempty"`
}

// ReportResult tells the reporter whether the post was hidden for review
type ReportResult struct {
	Report models.PostReport `json:"report"`
	Hidden bool              `json:"hidden"`
}

// QueueItem is a held post awaiting an admin decision
type QueueItem struct {
	models.CommunityPost
	AuthorID    string   `json:"authorId"`
	ReportCount int64    `json:"reportCount"`
	Reasons     []string `json:"reasons"`
}

// CommentQueueItem is a held comment awaiting an admin decision
type CommentQueueItem struct {
	models.CommunityComment
	AuthorID string   `json:"authorId"`
	Reasons  []string `json:"reasons"`
}

// PostInput is a new post
type PostInput struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Anonymous bool   `json:"anonymous"`
}

// CommunityService runs circles, posts, comments, votes and reports
type CommunityService struct {
	DB         *gorm.DB
	Moderation *ContentModerator
}

func (s *CommunityService) silent() *gorm.DB {
	return s.DB.Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)})
}

func viewPost(p models.CommunityPost) PostView {
	v := PostView{CommunityPost: p}
	if !p.Anonymous {
		v.Author = p.AuthorID
	}
	return v
}

func viewComment(c models.CommunityComment) CommentView {
	v := CommentView{CommunityComment: c}
	if !c.Anonymous {
		v.Author = c.AuthorID
	}
	return v
}

// ListCircles returns every circle by name
func (s *CommunityService) ListCircles() ([]models.Circle, error) {
	var circles []models.Circle
	err := s.silent().Order("name").Find(&circles).Error
	return circles, err
}

// GetCircle returns a circle by slug
func (s *CommunityService) GetCircle(circleSlug string) (*models.Circle, error) {
	var circle models.Circle
	if err := s.silent().Where("slug = ?", circleSlug).First(&circle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("circle %q: %w", circleSlug, ErrNotFound)
		}
		return nil, err
	}
	return &circle, nil
}

// CreateCircle adds a circle with a slug derived from its name
func (s *CommunityService) CreateCircle(userID, name, description string) (*models.Circle, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > 100 {
		return nil, &ValidationError{Fields: map[string]string{"name": "must be 1 to 100 characters"}}
	}
	circle := models.Circle{Slug: slug.Make(name), Name: name, Description: description, CreatedBy: userID}
	if circle.Slug == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "could not derive a slug"}}
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Circle{}).Where("slug = ?", circle.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("circle %q: %w", circle.Slug, ErrConflict)
		}
		return tx.Create(&circle).Error
	})
	if err != nil {
		return nil, err
	}
	return &circle, nil
}

// JoinCircle makes the user a member. Joining twice is a no-op.
func (s *CommunityService) JoinCircle(userID, circleSlug string) (*models.Circle, error) {
	circle, err := s.GetCircle(circleSlug)
	if err != nil {
		return nil, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.CircleMembership{CircleID: circle.ID, UserID: userID, Role: "member"})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Circle{}).Where("id = ?", circle.ID).
			UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetCircle(circleSlug)
}

// LeaveCircle removes the membership. Leaving a circle one is not in is a no-op.
func (s *CommunityService) LeaveCircle(userID, circleSlug string) (*models.Circle, error) {
	circle, err := s.GetCircle(circleSlug)
	if err != nil {
		return nil, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("circle_id = ? AND user_id = ?", circle.ID, userID).Delete(&models.CircleMembership{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Circle{}).Where("id = ? AND member_count > 0", circle.ID).
			UpdateColumn("member_count", gorm.Expr("member_count - 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetCircle(circleSlug)
}

func (s *CommunityService) isMember(circleID uint64, userID string) (bool, error) {
	var count int64
	err := s.silent().Model(&models.CircleMembership{}).
		Where("circle_id = ? AND user_id = ?", circleID, userID).Count(&count).Error
	return count > 0, err
}

// CreatePost screens and stores a post in a circle the viewer belongs to. Blocked content
// returns a ModerationError; held content is stored pending review.
func (s *CommunityService) CreatePost(ctx context.Context, viewer Viewer, circleSlug string, in PostInput) (*SubmissionResult, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	errs := fieldErrors{}
	if n := utf8.RuneCountInString(in.Title); n == 0 || n > maxPostTitleChars {
		errs.add("title", fmt.Sprintf("must be 1 to %d characters", maxPostTitleChars))
	}
	if n := utf8.RuneCountInString(in.Body); n == 0 || n > maxPostBodyChars {
		errs.add("body", fmt.Sprintf("must be 1 to %d characters", maxPostBodyChars))
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	circle, err := s.GetCircle(circleSlug)
	if err != nil {
		return nil, err
	}
	if !viewer.Admin {
		member, err := s.isMember(circle.ID, viewer.UserID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, fmt.Errorf("circle %q membership: %w", circleSlug, ErrForbidden)
		}
	}

	decision := s.Moderation.Moderate(ctx, in.Title+"\n"+in.Body)
	if decision.Action == ModerationBlock {
		return nil, &ModerationError{Reasons: decision.Reasons}
	}

	post := models.CommunityPost{
		CircleID:          circle.ID,
		AuthorID:          viewer.UserID,
		Anonymous:         in.Anonymous,
		Title:             in.Title,
		Body:              in.Body,
		Status:            models.PostPublished,
		ModerationReasons: models.StringList(decision.Reasons),
	}
	if decision.Action == ModerationReview {
		post.Status = models.PostPending
	}
	if err := s.DB.Create(&post).Error; err != nil {
		return nil, err
	}

	view := viewPost(post)
	result := &SubmissionResult{Post: &view, Status: post.Status}
	if decision.Crisis {
		result.Crisis, err = s.crisisInfo()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *CommunityService) crisisInfo() (*CrisisInfo, error) {
	resources, err := CrisisResources(s.DB)
	if err != nil {
		return nil, err
	}
	return &CrisisInfo{Level: CrisisElevated, Resources: resources}, nil
}

// ListPosts returns a page of a circle's published posts. Order is "new" (default) or "top".
func (s *CommunityService) ListPosts(circleSlug, order string, page, pageSize int) (*PostPage, error) {
	circle, err := s.GetCircle(circleSlug)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)

	base := s.silent().Model(&models.CommunityPost{}).
		Where("circle_id = ? AND status = ?", circle.ID, models.PostPublished)

	out := &PostPage{Page: page, PageSize: pageSize, Posts: []PostView{}}
	if err := base.Count(&out.Total).Error; err != nil {
		return nil, err
	}

	query := s.silent().Clauses(hints.Comment("select", "community_feed")).
		Where("circle_id = ? AND status = ?", circle.ID, models.PostPublished)
	if order == "top" {
		query = query.Order("score DESC").Order("created_at DESC")
	} else {
		query = query.Order("created_at DESC").Order("id DESC")
	}

	var posts []models.CommunityPost
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		return nil, err
	}
	for _, p := range posts {
		out.Posts = append(out.Posts, viewPost(p))
	}
	return out, nil
}

// loadVisiblePost returns a post the viewer may see. Held and removed posts are visible
// only to their author and admins; to everyone else they do not exist.
func (s *CommunityService) loadVisiblePost(db *gorm.DB, viewer Viewer, postID uint64) (*models.CommunityPost, error) {
	var post models.CommunityPost
	if err := db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
		}
		return nil, err
	}
	if post.Status != models.PostPublished && !viewer.Admin && !viewer.owns(post.AuthorID) {
		return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	return &post, nil
}

// GetPost returns a post with its published comments, oldest first
func (s *CommunityService) GetPost(viewer Viewer, postID uint64) (*PostDetail, error) {
	post, err := s.loadVisiblePost(s.silent(), viewer, postID)
	if err != nil {
		return nil, err
	}

	var comments []models.CommunityComment
	if err := s.silent().Where("post_id = ? AND status = ?", postID, models.PostPublished).
		Order("created_at ASC").Order("id ASC").Find(&comments).Error; err != nil {
		return nil, err
	}

	detail := &PostDetail{PostView: viewPost(*post), Comments: make([]CommentView, 0, len(comments))}
	for _, c := range comments {
		detail.Comments = append(detail.Comments, viewComment(c))
	}
	return detail, nil
}

// DeletePost soft-deletes a post. Only the author or an admin may.
func (s *CommunityService) DeletePost(viewer Viewer, postID uint64) error {
	post, err := s.loadVisiblePost(s.DB, viewer, postID)
	if err != nil {
		return err
	}
	if !viewer.Admin && !viewer.owns(post.AuthorID) {
		return fmt.Errorf("post %d: %w", postID, ErrForbidden)
	}
	return s.DB.Delete(post).Error
}

// AddComment screens and stores a comment on a published post
func (s *CommunityService) AddComment(ctx context.Context, viewer Viewer, postID uint64, body string, anonymous bool) (*SubmissionResult, error) {
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > maxCommentChars {
		return nil, &ValidationError{Fields: map[string]string{"body": fmt.Sprintf("must be 1 to %d characters", maxCommentChars)}}
	}

	var post models.CommunityPost
	if err := s.DB.Where("id = ? AND status = ?", postID, models.PostPublished).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
		}
		return nil, err
	}

	decision := s.Moderation.Moderate(ctx, body)
	if decision.Action == ModerationBlock {
		return nil, &ModerationError{Reasons: decision.Reasons}
	}

	comment := models.CommunityComment{
		PostID:            postID,
		AuthorID:          viewer.UserID,
		Anonymous:         anonymous,
		Body:              body,
		Status:            models.PostPublished,
		ModerationReasons: models.StringList(decision.Reasons),
	}
	if decision.Action == ModerationReview {
		comment.Status = models.PostPending
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		if comment.Status != models.PostPublished {
			return nil
		}
		return tx.Model(&models.CommunityPost{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	view := viewComment(comment)
	result := &SubmissionResult{Comment: &view, Status: comment.Status}
	if decision.Crisis {
		if result.Crisis, err = s.crisisInfo(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Vote records the user's vote on a published post: 1, -1, or 0 to withdraw. The post
// score is recomputed from all votes in the same transaction and returned.
func (s *CommunityService) Vote(userID string, postID uint64, value int) (int64, error) {
	if value < -1 || value > 1 {
		return 0, &ValidationError{Fields: map[string]string{"value": "must be -1, 0 or 1"}}
	}

	var score int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var post models.CommunityPost
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status = ?", postID, models.PostPublished).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("post %d: %w", postID, ErrNotFound)
			}
			return err
		}

		if value == 0 {
			if err := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.CommunityVote{}).Error; err != nil {
				return err
			}
		} else if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&models.CommunityVote{PostID: postID, UserID: userID, Value: value}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.CommunityVote{}).Where("post_id = ?", postID).
			Select("COALESCE(SUM(value), 0)").Scan(&score).Error; err != nil {
			return err
		}
		return tx.Model(&models.CommunityPost{}).Where("id = ?", postID).UpdateColumn("score", score).Error
	})
	return score, err
}

// ReportPost files the user's report. A user may report a post once. Reaching the report
// threshold moves a published post back to review.
func (s *CommunityService) ReportPost(userID string, postID uint64, reason string) (*ReportResult, error) {
	reason = strings.TrimSpace(reason)
	if n := utf8.RuneCountInString(reason); n == 0 || n > maxReportChars {
		return nil, &ValidationError{Fields: map[string]string{"reason": fmt.Sprintf("must be 1 to %d characters", maxReportChars)}}
	}

	result := &ReportResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var post models.CommunityPost
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("post %d: %w", postID, ErrNotFound)
			}
			return err
		}

		var existing int64
		if err := tx.Model(&models.PostReport{}).
			Where("post_id = ? AND reporter_id = ?", postID, userID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("report on post %d: %w", postID, ErrConflict)
		}

		result.Report = models.PostReport{PostID: postID, ReporterID: userID, Reason: reason}
		if err := tx.Create(&result.Report).Error; err != nil {
			return err
		}

		var open int64
		if err := tx.Model(&models.PostReport{}).
			Where("post_id = ? AND resolved = ?", postID, false).Count(&open).Error; err != nil {
			return err
		}
		if open >= ReportHideThreshold && post.Status == models.PostPublished {
			if err := tx.Model(&models.CommunityPost{}).Where("id = ?", postID).
				Update("status", models.PostPending).Error; err != nil {
				return err
			}
			result.Hidden = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ModerationQueue lists held posts, most reported first
func (s *CommunityService) ModerationQueue() ([]QueueItem, error) {
	var posts []models.CommunityPost
	if err := s.silent().Where("status = ?", models.PostPending).
		Order("created_at ASC").Find(&posts).Error; err != nil {
		return nil, err
	}

	items := make([]QueueItem, 0, len(posts))
	for _, p := range posts {
		item := QueueItem{CommunityPost: p, AuthorID: p.AuthorID, Reasons: p.ModerationReasons}
		if err := s.silent().Model(&models.PostReport{}).
			Where("post_id = ? AND resolved = ?", p.ID, false).Count(&item.ReportCount).Error; err != nil {
			return nil, err
		}
		if item.Reasons == nil {
			item.Reasons = []string{}
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ReportCount > items[j].ReportCount
	})
	return items, nil
}

// ResolvePost approves or removes a held post and closes its reports
func (s *CommunityService) ResolvePost(postID uint64, action string) (*models.CommunityPost, error) {
	status := ""
	switch action {
	case ResolveApprove:
		status = models.PostPublished
	case ResolveRemove:
		status = models.PostRemoved
	default:
		return nil, &ValidationError{Fields: map[string]string{"action": "must be approve or remove"}}
	}

	var post models.CommunityPost
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("post %d: %w", postID, ErrNotFound)
			}
			return err
		}
		if err := tx.Model(&post).Update("status", status).Error; err != nil {
			return err
		}
		return tx.Model(&models.PostReport{}).Where("post_id = ? AND resolved = ?", postID, false).
			Update("resolved", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CommentQueue lists held comments, oldest first
func (s *CommunityService) CommentQueue() ([]CommentQueueItem, error) {
	var comments []models.CommunityComment
	if err := s.silent().Where("status = ?", models.PostPending).
		Order("created_at ASC").Order("id ASC").Find(&comments).Error; err != nil {
		return nil, err
	}

	items := make([]CommentQueueItem, 0, len(comments))
	for _, c := range comments {
		item := CommentQueueItem{CommunityComment: c, AuthorID: c.AuthorID, Reasons: c.ModerationReasons}
		if item.Reasons == nil {
			item.Reasons = []string{}
		}
		items = append(items, item)
	}
	return items, nil
}

// ResolveComment approves or removes a held comment. Approving publishes it and counts it
// on its post.
func (s *CommunityService) ResolveComment(commentID uint64, action string) (*models.CommunityComment, error) {
	status := ""
	switch action {
	case ResolveApprove:
		status = models.PostPublished
	case ResolveRemove:
		status = models.PostRemoved
	default:
		return nil, &ValidationError{Fields: map[string]string{"action": "must be approve or remove"}}
	}

	var comment models.CommunityComment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&comment, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
			}
			return err
		}
		if comment.Status == status {
			return nil
		}

		var delta int
		switch {
		case status == models.PostPublished:
			delta = 1
		case comment.Status == models.PostPublished:
			delta = -1
		}
		if err := tx.Model(&comment).Update("status", status).Error; err != nil {
			return err
		}
		if delta == 0 {
			return nil
		}
		return tx.Model(&models.CommunityPost{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", delta)).Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}
