// Package twitter defines the remote API boundary for the bot.
//
// The engine and session manager only see the Client and Authorizer
// interfaces; the production implementation (API) talks to the Twitter
// v1.1 REST endpoints over an OAuth1-signed HTTP client, and tests
// substitute scripted fakes.
package twitter
