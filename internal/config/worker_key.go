package config

type WorkerKeyStruct struct {
	PersistAuditQueue  string
	PersistEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAuditQueue:  "persist_audit_queue",
	PersistEventsQueue: "persist_events_queue",
}
