// Package calendar provides the calendar collaborator used by the scheduling engine.
//
// The Provider interface is the contract the engine reads and writes through:
// listing expanded events in a time range, querying aggregate busy time,
// inserting, patching and deleting events. Client implements it on top of the
// Google Calendar API; Instrumented decorates any Provider with metrics and
// tracing.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := calendar.NewClientForAccountWithProvider(ctx, "default", google.NewFileTokenProvider())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	events, err := client.ListEvents(ctx, "primary", time.Now(), time.Now().AddDate(0, 0, 1))
//	if err != nil {
//	    log.Fatal(err)
//	}
package calendar
