package config

const (
	// TopicKnowledgeIngested is the NSQ topic notified after a batch of
	// records is written for a project.
	TopicKnowledgeIngested = "knowledge.ingested"

	// TopicKnowledgeSynced is the NSQ topic notified after a filesystem
	// sync run completes for a project.
	TopicKnowledgeSynced = "knowledge.synced"
)
