// Package otlpserver receives OTLP log export requests over gRPC and
// converts each LogRecord into a structured ingestion record.
package otlpserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/tinytelemetry/lumen/internal/ingest"
	"github.com/tinytelemetry/lumen/internal/logparse"
)

// RecordSink receives structured records extracted from OTLP payloads.
// *ingest.Assembler satisfies it.
type RecordSink interface {
	SubmitRecords(source string, records []ingest.Record)
}

// Server is the gRPC LogsService endpoint.
type Server struct {
	collogspb.UnimplementedLogsServiceServer

	addr string
	sink RecordSink
	grpc *grpc.Server
	lis  net.Listener
}

// NewServer creates an OTLP receiver. Default addr is "127.0.0.1:4317".
func NewServer(addr string, sink RecordSink) *Server {
	if addr == "" {
		addr = "127.0.0.1:4317"
	}
	return &Server{addr: addr, sink: sink}
}

// Start listens and begins serving export requests.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("otlpserver: listen %s: %w", s.addr, err)
	}
	s.lis = lis
	s.grpc = grpc.NewServer()
	collogspb.RegisterLogsServiceServer(s.grpc, s)
	go func() {
		if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Printf("otlpserver: serve: %v", err)
		}
	}()
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
}

// Addr returns the active listen address.
// Before Start, it returns the configured address.
func (s *Server) Addr() string {
	if s.lis != nil {
		return s.lis.Addr().String()
	}
	return s.addr
}

// Export implements collogspb.LogsServiceServer.
func (s *Server) Export(ctx context.Context, req *collogspb.ExportLogsServiceRequest) (*collogspb.ExportLogsServiceResponse, error) {
	if records := RecordsFromExport(req); len(records) > 0 {
		s.sink.SubmitRecords("otlp", records)
	}
	return &collogspb.ExportLogsServiceResponse{}, nil
}

// RecordsFromExport flattens an export request into ingestion records.
// The HTTP ingest endpoint funnels protojson-decoded requests through the
// same conversion.
func RecordsFromExport(req *collogspb.ExportLogsServiceRequest) []ingest.Record {
	var records []ingest.Record
	for _, rl := range req.GetResourceLogs() {
		for _, sl := range rl.GetScopeLogs() {
			scope := sl.GetScope().GetName()
			for _, rec := range sl.GetLogRecords() {
				message := bodyText(rec.GetBody())
				if message == "" {
					continue
				}
				level := logparse.OTLPSeverityNumber(int(rec.GetSeverityNumber()))
				if text := rec.GetSeverityText(); text != "" {
					level = logparse.NormalizeLevel(text)
				}
				category := scope
				if category == "" {
					category = attrString(rec.GetAttributes(), "logger", "category")
				}
				records = append(records, ingest.Record{
					Time:     recordTime(rec.GetTimeUnixNano(), rec.GetObservedTimeUnixNano()),
					Level:    level,
					Category: category,
					Message:  message,
				})
			}
		}
	}
	return records
}

func recordTime(nanos, observed uint64) time.Time {
	if nanos == 0 {
		nanos = observed
	}
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(nanos))
}

// bodyText renders a log body. String bodies pass through; structured
// bodies keep their JSON shape so nothing is lost.
func bodyText(body *commonpb.AnyValue) string {
	if body == nil {
		return ""
	}
	if s := body.GetStringValue(); s != "" {
		return s
	}
	if _, ok := body.GetValue().(*commonpb.AnyValue_StringValue); ok {
		return ""
	}
	return protojson.MarshalOptions{}.Format(body)
}

func attrString(attrs []*commonpb.KeyValue, keys ...string) string {
	for _, key := range keys {
		for _, kv := range attrs {
			if kv.GetKey() == key {
				if s := kv.GetValue().GetStringValue(); s != "" {
					return s
				}
			}
		}
	}
	return ""
}
