/*
Package resilience provides the circuit breaker that guards console API calls.

# Overview

When the console backend is down every page fetch, statistics refresh and
detail lookup would otherwise wait out its full retry budget. The breaker
fails those calls fast until the backend has had time to recover.

# Usage

	breaker := resilience.New("console-api", resilience.Settings{
		MaxRequests: 2,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	err := breaker.Execute(func() error {
		return client.Call()
	})

For calls whose outcome is only known later, Allow returns a completion
callback instead:

	done, err := breaker.Allow()
	if err != nil {
		return err
	}
	resp, err := send()
	done(classify(resp, err))

# States

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                                |
	                                            [failure]
	                                                |
	                                                v
	                                              Open
*/
package resilience
