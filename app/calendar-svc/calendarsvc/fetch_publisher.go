package calendarsvc

import (
	logger "log"
	"time"

	"github.com/OpenTransitTools/holidaycal/business/data/fetchlog"
	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Fetch kinds
const (
	FetchKindCountries = "countries"
	FetchKindHolidays  = "holidays"
)

//FetchOutcome describes one completed request to the HolidaySource
type FetchOutcome struct {
	Id          string
	Kind        string
	Year        int
	CountryCode string
	Generation  uint64
	Succeeded   bool
	Stale       bool
	Records     int
	Error       string
	StartedAt   time.Time
	Duration    time.Duration
}

//result names the outcome for metrics: success, stale or failure
func (o FetchOutcome) result() string {
	switch {
	case !o.Succeeded:
		return "failure"
	case o.Stale:
		return "stale"
	}
	return "success"
}

//FetchObserver is told about every completed fetch
type FetchObserver interface {
	Observe(outcome FetchOutcome)
}

type noopObserver struct{}

func (noopObserver) Observe(FetchOutcome) {}

//FetchOutcomePublisher sends fetch outcomes to their destinations (metrics, and optionally nats and the database)
type FetchOutcomePublisher struct {
	log              *logger.Logger
	db               *sqlx.DB
	natsConnection   *nats.Conn
	subject          string
	recordToDatabase bool
	publishOverNats  bool
}

//MakeFetchOutcomePublisher creates FetchOutcomePublisher. A nil db or natsConnection disables that destination.
func MakeFetchOutcomePublisher(log *logger.Logger,
	db *sqlx.DB,
	natsConnection *nats.Conn,
	subject string) *FetchOutcomePublisher {
	return &FetchOutcomePublisher{
		log:              log,
		db:               db,
		natsConnection:   natsConnection,
		subject:          subject,
		recordToDatabase: db != nil,
		publishOverNats:  natsConnection != nil,
	}
}

//Observe implements FetchObserver
func (p *FetchOutcomePublisher) Observe(outcome FetchOutcome) {
	recordFetchMetrics(outcome)
	if p.publishOverNats {
		p.sendOverNats(outcome)
	}
	if p.recordToDatabase {
		p.record(outcome)
	}
}

func (p *FetchOutcomePublisher) sendOverNats(outcome FetchOutcome) {
	data, err := encodeFetchOutcome(outcome)
	if err != nil {
		p.log.Printf("failed to encode fetch outcome %s, error:%v", outcome.Id, err)
		return
	}
	err = p.natsConnection.Publish(p.subject, data)
	if err != nil {
		p.log.Printf("failed to publish fetch outcome %s on %s, error:%v", outcome.Id, p.subject, err)
	}
}

func (p *FetchOutcomePublisher) record(outcome FetchOutcome) {
	err := fetchlog.RecordFetch(p.db, makeFetchRecord(outcome))
	if err != nil {
		p.log.Printf("failed to record fetch outcome %s, error:%v", outcome.Id, err)
	}
}

//makeFetchRecord converts FetchOutcome to its database row
func makeFetchRecord(outcome FetchOutcome) *fetchlog.Record {
	return &fetchlog.Record{
		Id:           outcome.Id,
		Kind:         outcome.Kind,
		Year:         outcome.Year,
		CountryCode:  outcome.CountryCode,
		Succeeded:    outcome.Succeeded,
		Stale:        outcome.Stale,
		RecordCount:  outcome.Records,
		ErrorMessage: outcome.Error,
		StartedAt:    outcome.StartedAt,
		DurationMs:   outcome.Duration.Milliseconds(),
	}
}

//encodeFetchOutcome marshals outcome as a protocol buffer google.protobuf.Struct
func encodeFetchOutcome(outcome FetchOutcome) ([]byte, error) {
	message, err := structpb.NewStruct(map[string]interface{}{
		"id":           outcome.Id,
		"kind":         outcome.Kind,
		"year":         outcome.Year,
		"country_code": outcome.CountryCode,
		"generation":   outcome.Generation,
		"succeeded":    outcome.Succeeded,
		"stale":        outcome.Stale,
		"records":      outcome.Records,
		"error":        outcome.Error,
		"started_at":   outcome.StartedAt.UTC().Format(time.RFC3339Nano),
		"duration_ms":  outcome.Duration.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(message)
}

//DecodeFetchOutcome reads a fetch outcome published over nats
func DecodeFetchOutcome(data []byte) (FetchOutcome, error) {
	var message structpb.Struct
	if err := proto.Unmarshal(data, &message); err != nil {
		return FetchOutcome{}, err
	}
	fields := message.GetFields()
	outcome := FetchOutcome{
		Id:          fields["id"].GetStringValue(),
		Kind:        fields["kind"].GetStringValue(),
		Year:        int(fields["year"].GetNumberValue()),
		CountryCode: fields["country_code"].GetStringValue(),
		Generation:  uint64(fields["generation"].GetNumberValue()),
		Succeeded:   fields["succeeded"].GetBoolValue(),
		Stale:       fields["stale"].GetBoolValue(),
		Records:     int(fields["records"].GetNumberValue()),
		Error:       fields["error"].GetStringValue(),
		Duration:    time.Duration(fields["duration_ms"].GetNumberValue()) * time.Millisecond,
	}
	startedAt, err := time.Parse(time.RFC3339Nano, fields["started_at"].GetStringValue())
	if err != nil {
		return FetchOutcome{}, err
	}
	outcome.StartedAt = startedAt
	return outcome, nil
}
