/*
Package tracing provides the live trace feed engine.

# Overview

An Engine keeps one page of traces of a single kind (for example "llm")
consistent with the server. It loads pages over REST with the user's
filters, then listens on a push channel for trace lifecycle events and
merges them into the visible page without re-querying.

Kind-specific behavior lives in a Delegate: the filters the kind
understands, its statistics formatting and its table and detail columns.

# Usage

	dialer, err := socket.NewDialer(socket.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}
	engine, err := tracing.New[llm.Trace, llm.Statistics](tracing.Config{
		Kind:        "llm",
		Requester:   apiClient,
		Dialer:      dialer,
		Credentials: store,
		Logger:      logger,
	}, llm.NewDelegate())
	if err != nil {
		return err
	}
	defer engine.Close()

	engine.Initialize(ctx, map[string]string{"model": "gpt-4"})

# Merge rules

  - new: the total always grows. The trace is prepended only on an
    unfiltered first page, and the page is truncated to the page size.
  - update: the matching visible row is replaced in place. Nothing is
    ever appended.
  - either: an open detail view with the same trace_id is refreshed and a
    statistics refresh is requested. Concurrent requests coalesce.

# Push channel

	Disconnected --Connect--> Connecting --open--> Connected
	     ^                        |                    |
	     |                   dial failure         lost channel
	     +---- timer (3s) <-------+--------------------+

Clean closes are final. Any other close counts as a failure, and the count
is checked against the limit (default 5) after it is incremented. With the
default that means at most five channels dialled in a row: the first
Connect plus four timed retries. The fifth failure schedules nothing; the
engine stops and waits for Connect or Refresh. A successful open resets the
count.
*/
package tracing
