package core

import "errors"

// 定义核心错误
var (
	// ErrEmptyFetcherChain 市场的数据源链为空，属于构造期配置错误
	ErrEmptyFetcherChain = errors.New("fetcher chain is empty")

	// ErrMarketNotSupported 不支持的市场
	ErrMarketNotSupported = errors.New("market not supported")

	// ErrInvalidSymbol 无效的股票代码
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrNoData 所有数据源均无法提供数据
	ErrNoData = errors.New("no data available")
)
