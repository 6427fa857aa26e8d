package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/repository"
)

const collectionName = "interviews"

var _ repository.InterviewRepository = (*MongoInterviewRepo)(nil)

// MongoInterviewRepo stores each interview as one document with embedded
// transcript and scores. Save requires a replica set for multi-statement transactions.
type MongoInterviewRepo struct {
	client *mongo.Client
	col    *mongo.Collection
}

// NewMongoInterviewRepo creates a repository on db.
func NewMongoInterviewRepo(client *mongo.Client, db *mongo.Database) *MongoInterviewRepo {
	col := db.Collection(collectionName)

	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{bson.E{Key: "candidate_id", Value: 1}},
	})

	return &MongoInterviewRepo{client: client, col: col}
}

type transcriptDoc struct {
	Text     string           `bson:"text"`
	Segments []domain.Segment `bson:"segments"`
}

type scoresDoc struct {
	Fluency   float64 `bson:"fluency"`
	Relevance float64 `bson:"relevance"`
	Overall   float64 `bson:"overall"`
}

type interviewDoc struct {
	ID             string         `bson:"_id"`
	CandidateID    string         `bson:"candidate_id"`
	Language       string         `bson:"language"`
	Status         string         `bson:"status"`
	VerbalScore    *float64       `bson:"verbal_score"`
	NonVerbalScore *float64       `bson:"non_verbal_score"`
	CheatingScore  *float64       `bson:"cheating_score"`
	FinalScore     *float64       `bson:"final_score"`
	Confidence     *float64       `bson:"confidence"`
	Summary        *string        `bson:"summary"`
	ErrorMessage   *string        `bson:"error_message"`
	Transcript     *transcriptDoc `bson:"transcript,omitempty"`
	Scores         *scoresDoc     `bson:"nlp_scores,omitempty"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

func (r *MongoInterviewRepo) GetByID(ctx context.Context, id string) (*domain.Interview, error) {
	var doc interviewDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrInterviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: get interview by id: %w", err)
	}
	return doc.toDomain(), nil
}

// Save reads, mutates and replaces the interview document inside a session transaction.
func (r *MongoInterviewRepo) Save(ctx context.Context, id string, mutate func(*domain.Interview) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongodb: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now().UTC()

		var doc interviewDoc
		rec := &domain.Interview{ID: id, Language: domain.DefaultLanguage, CreatedAt: now}
		err := r.col.FindOne(sc, bson.M{"_id": id}).Decode(&doc)
		switch {
		case err == nil:
			rec = doc.toDomain()
		case !errors.Is(err, mongo.ErrNoDocuments):
			return nil, fmt.Errorf("read interview: %w", err)
		}

		if err := mutate(rec); err != nil {
			return nil, err
		}
		rec.UpdatedAt = now

		_, err = r.col.ReplaceOne(sc, bson.M{"_id": id}, fromDomain(rec), options.Replace().SetUpsert(true))
		if err != nil {
			return nil, fmt.Errorf("replace interview: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("mongodb: save interview: %w", err)
	}
	return nil
}

func fromDomain(rec *domain.Interview) *interviewDoc {
	doc := &interviewDoc{
		ID:             rec.ID,
		CandidateID:    rec.CandidateID,
		Language:       rec.Language,
		Status:         string(rec.Status),
		VerbalScore:    rec.VerbalScore,
		NonVerbalScore: rec.NonVerbalScore,
		CheatingScore:  rec.CheatingScore,
		FinalScore:     rec.FinalScore,
		Confidence:     rec.Confidence,
		Summary:        rec.Summary,
		ErrorMessage:   rec.ErrorMessage,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
	if rec.Transcript != nil {
		doc.Transcript = &transcriptDoc{Text: rec.Transcript.Text, Segments: rec.Transcript.Segments}
	}
	if rec.Scores != nil {
		doc.Scores = &scoresDoc{Fluency: rec.Scores.Fluency, Relevance: rec.Scores.Relevance, Overall: rec.Scores.Overall}
	}
	return doc
}

func (d *interviewDoc) toDomain() *domain.Interview {
	rec := &domain.Interview{
		ID:             d.ID,
		CandidateID:    d.CandidateID,
		Language:       d.Language,
		Status:         domain.InterviewStatus(d.Status),
		VerbalScore:    d.VerbalScore,
		NonVerbalScore: d.NonVerbalScore,
		CheatingScore:  d.CheatingScore,
		FinalScore:     d.FinalScore,
		Confidence:     d.Confidence,
		Summary:        d.Summary,
		ErrorMessage:   d.ErrorMessage,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if d.Transcript != nil {
		rec.Transcript = &domain.Transcript{Text: d.Transcript.Text, Segments: d.Transcript.Segments}
	}
	if d.Scores != nil {
		rec.Scores = &domain.TextScores{Fluency: d.Scores.Fluency, Relevance: d.Scores.Relevance, Overall: d.Scores.Overall}
	}
	return rec
}
