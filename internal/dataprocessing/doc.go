// Package dataprocessing turns wide-format fuel sales exports into
// analysis-ready time series.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. SheetLoader: reads .xlsx/.xlsm workbooks (excelize) and .csv files into a RawSheet
// 2. Reshaper: unpivots month columns into long-format SalesRecords
// 3. ExtractSeries / Pairs: select one (outlet, fuel type) series
// 4. Summarizer: per-series statistics used for listing and batch filtering
//
// # Usage
//
//	sheet, err := dataprocessing.NewSheetLoader(logger).Load(ctx, "petrol.xlsx", "")
//	if err != nil {
//	    return err
//	}
//	records, drops, err := dataprocessing.Reshape(sheet, "Petrol")
//	if err != nil {
//	    return err
//	}
//	series := dataprocessing.ExtractSeries(records, "OutletA", "Petrol")
//
// Cells that cannot be read (a month header such as "Notes", a blank or
// non-numeric sales value) are discarded and accounted for in the DropReport.
package dataprocessing
