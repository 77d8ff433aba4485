package main

import "github.com/mark3labs/mcp-go/mcp"

func createListMarketsTool() mcp.Tool {
	return mcp.NewTool("list_markets",
		mcp.WithDescription("List the supported marketplaces and show which one this server is configured for."),
	)
}

func createListVerticalsTool() mcp.Tool {
	return mcp.NewTool("list_verticals",
		mcp.WithDescription("List the product verticals of the configured market in the chosen language mode."),
		mcp.WithString("mode",
			mcp.Description("Language mode: 'native' (default) or 'english'"),
			mcp.Enum("native", "english"),
		),
	)
}

func createGetMarketInsightsTool() mcp.Tool {
	return mcp.NewTool("get_market_insights",
		mcp.WithDescription("Get the grounded market insight report for one vertical of the configured market. Reports are cached per vertical and language mode."),
		mcp.WithString("vertical",
			mcp.Required(),
			mcp.Description("Vertical name exactly as returned by list_verticals"),
		),
		mcp.WithString("mode",
			mcp.Description("Language mode: 'native' (default) or 'english'"),
			mcp.Enum("native", "english"),
		),
	)
}
