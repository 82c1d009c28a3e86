// Package charts renders the dashboard figures as SVG documents so that
// Korean labels are drawn by the browser with its own fonts.
//
// Bar panels, box plots and scatter plots use gonum/plot. Time series use
// go-chart, which handles time axes and a secondary y axis.
package charts
