package config

const (
	// TopicIngestCorpus is the NSQ topic carrying one task per corpus
	// ingestion attempt.
	TopicIngestCorpus = "ingest.corpus"

	// ChannelIngestor is the consumer channel the ingestion worker joins.
	ChannelIngestor = "ingestor"
)
