// Package systems provides the three stock systems every match runs:
//
//   - InteractionSystem owns the current/queued interaction slice, blocks
//     other commands while a choice is pending and resolves answers through
//     the registered option generators and resolvers.
//   - ResponseSystem owns the window stack, restricts commands to the
//     active window's allow-list and walks priority.
//   - FlowSystem owns the phase slice, runs exit, enter and auto-continue
//     hooks and resumes halted transitions.
//
// Rule-sets never touch these slices directly. They emit the request
// events built by QueueInteraction and OpenResponseWindow and the systems
// apply them after the batch is reduced.
package systems
