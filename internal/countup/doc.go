// Package countup animates numeric and date-like values digit by digit.
//
// # Pieces
//
//   - [Format] turns a [Target] into its canonical display string: thousands
//     grouping, fixed decimals, prefix and suffix. Strings pass through as-is.
//
//   - [Policy] assigns every digit slot a start delay and a duration
//     (simultaneous, staggered from either end, or weighted by digit value).
//
//   - [Run] drives one digit slot from its initial value to the target digit
//     using either eased interpolation ([Direct]) or a mechanical wheel that
//     cycles through every digit ([Odometer]).
//
//   - [Display] owns the slots of the value currently shown, restarts them
//     when a different value arrives and releases every pending callback on
//     replacement or [Display.Close].
//
// # Time
//
// Nothing in this package sleeps or spawns goroutines. Callbacks are handed to
// a [Scheduler]; the production [Loop] runs them once per frame from
// [Loop.Run], and tests drive the same Loop with a clockwork fake clock and
// explicit [Loop.Step] calls.
//
//	loop := countup.NewLoop(clockwork.NewRealClock(), countup.DefaultFrameInterval)
//	go loop.Run(ctx)
//
//	d := countup.NewDisplay(loop, countup.StyleRolling.Options(false))
//	d.OnChange(func(text string) { fmt.Println(text) })
//	d.SetTarget(countup.Number(11700))
//
// # Failure modes
//
// The package never returns errors. Negative or non-finite numbers render as
// zero, malformed date tokens render as a static literal and callbacks that
// fire after their sequence was replaced are ignored.
package countup
