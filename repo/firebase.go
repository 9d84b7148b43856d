package repo

import (
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"SurveyBot/model"
)

// FirebaseConnector persists submissions and the moderator set in Firebase
// Realtime Database.
type FirebaseConnector struct {
	app    *firebase.App
	client *db.Client
}

// NewFirebaseConnector creates a new Firebase connector
func NewFirebaseConnector(ctx context.Context, serviceAccountKeyPath string, databaseURL string) (*FirebaseConnector, error) {
	// Load the service account key file
	opt := option.WithCredentialsFile(serviceAccountKeyPath)

	config := &firebase.Config{
		DatabaseURL: databaseURL,
	}
	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting database client: %w", err)
	}

	return &FirebaseConnector{
		app:    app,
		client: client,
	}, nil
}

// Upsert writes the submission under its user ID. Set overwrites the whole
// node, so repeated calls for the same identity never duplicate.
func (fc *FirebaseConnector) Upsert(ctx context.Context, sub model.Submission) error {
	ref := fc.client.NewRef("submissions").Child(strconv.FormatInt(sub.UserID, 10))
	if err := ref.Set(ctx, sub); err != nil {
		return fmt.Errorf("error upserting submission: %w", err)
	}
	return nil
}

// List reads all submissions.
func (fc *FirebaseConnector) List(ctx context.Context) ([]model.Submission, error) {
	ref := fc.client.NewRef("submissions")
	var subs map[string]model.Submission
	if err := ref.Get(ctx, &subs); err != nil {
		return nil, fmt.Errorf("error listing submissions: %w", err)
	}

	var list []model.Submission
	for _, sub := range subs {
		list = append(list, sub)
	}
	return list, nil
}

// Clear deletes every submission.
func (fc *FirebaseConnector) Clear(ctx context.Context) error {
	ref := fc.client.NewRef("submissions")
	if err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("error clearing submissions: %w", err)
	}
	return nil
}

// LoadModerators reads the persisted moderator IDs.
func (fc *FirebaseConnector) LoadModerators(ctx context.Context) ([]int64, error) {
	ref := fc.client.NewRef("moderators")
	var mods map[string]bool
	if err := ref.Get(ctx, &mods); err != nil {
		return nil, fmt.Errorf("error loading moderators: %w", err)
	}

	var ids []int64
	for key, ok := range mods {
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing moderator id %q: %w", key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SaveModerators replaces the persisted moderator set.
func (fc *FirebaseConnector) SaveModerators(ctx context.Context, ids []int64) error {
	mods := make(map[string]bool, len(ids))
	for _, id := range ids {
		mods[strconv.FormatInt(id, 10)] = true
	}
	ref := fc.client.NewRef("moderators")
	if err := ref.Set(ctx, mods); err != nil {
		return fmt.Errorf("error saving moderators: %w", err)
	}
	return nil
}

// Close is a no-op: the Realtime Database client holds no closable handle.
func (fc *FirebaseConnector) Close() error {
	return nil
}
