// Package wizard implements the roast walkthrough shared by the web app and the TUI.
//
// The walkthrough is a fixed sequence of [Slide] values ending at the
// dashboard. [Wizard.Start] creates the remote record for the selection held in
// the visitor's session; [Wizard.Load] builds the [View] for one slide.
//
// Ranked slides show [PageSize] cards. The first artists and tracks slides
// fetch the full ranking, show the first page and store the second page in
// the session, where the follow-up slide picks it up without a remote call.
//
// Views are loading until their data exists. A session without a created
// record, a failed fetch or an empty payload all render the loading text.
package wizard
