// Package exporter turns a ranked institution list into report artifacts.
//
// CSVWriter handles generic CSV output with UTF-8 BOM for Excel
// compatibility. WorkbookBuilder produces the XLSX companion report with a
// rankings sheet and a bar chart of the top institutions by composite score.
package exporter
