// Package connectors holds the page sources that feed ingestion. Each
// subpackage implements driven.PageSource for one content system:
// confluence, notion and filesystem. The filesystem source also implements
// driven.WatchablePageSource.
//
// New selects the source named by domain.SourceSettings.
package connectors
