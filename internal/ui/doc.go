// Package ui implements an interactive terminal roast wizard using bubbletea's Elm architecture.
//
// The TUI walks the same screens as the web pages:
//  1. [MenuView] : Pick a time range, start a solo roast, or open the others
//  2. [PartnerView] : Enter a friend's username for a duo roast
//  3. [SlideView] : Step through the wizard slides, with a spinner while a slide loads
//  4. [HistoryView] : Browse past roasts and replay one
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Remote calls run as commands through [wizard.Wizard], so the screen never blocks on the network.
//
// Navigation uses single-key bindings (←/→, enter, d, p, n, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
// Logs must go to a file logger; anything written to stdout corrupts the screen.
package ui
