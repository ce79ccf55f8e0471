package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /fibonacci/{n})
	GetFibonacci(c *gin.Context, n int, params GetFibonacciParams)
	// (POST /jobs/cancel/{id})
	CancelJob(c *gin.Context, id string)
	// (POST /jobs/terminate/{id})
	TerminateJob(c *gin.Context, id string)
	// (GET /dispatcher)
	GetDispatcherStatus(c *gin.Context)
	// (GET /observations)
	GetObservations(c *gin.Context, params GetObservationsParams)
	// (GET /observations/summary)
	GetObservationSummary(c *gin.Context)
	// (GET /observations/{id})
	GetObservation(c *gin.Context, id string)
}

// ServerInterfaceWrapper converts path and query parameters before calling
// the handler.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (siw *ServerInterfaceWrapper) GetFibonacci(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid format for parameter n: " + err.Error()})
		return
	}

	var params GetFibonacciParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query parameters: " + err.Error()})
		return
	}

	siw.Handler.GetFibonacci(c, n, params)
}

func (siw *ServerInterfaceWrapper) CancelJob(c *gin.Context) {
	siw.Handler.CancelJob(c, c.Param("id"))
}

func (siw *ServerInterfaceWrapper) TerminateJob(c *gin.Context) {
	siw.Handler.TerminateJob(c, c.Param("id"))
}

func (siw *ServerInterfaceWrapper) GetDispatcherStatus(c *gin.Context) {
	siw.Handler.GetDispatcherStatus(c)
}

func (siw *ServerInterfaceWrapper) GetObservations(c *gin.Context) {
	var params GetObservationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query parameters: " + err.Error()})
		return
	}
	siw.Handler.GetObservations(c, params)
}

func (siw *ServerInterfaceWrapper) GetObservationSummary(c *gin.Context) {
	siw.Handler.GetObservationSummary(c)
}

func (siw *ServerInterfaceWrapper) GetObservation(c *gin.Context) {
	siw.Handler.GetObservation(c, c.Param("id"))
}

// RegisterHandlers creates http.Handler with routing matching the API.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.GET("/fibonacci/:n", wrapper.GetFibonacci)
	router.POST("/jobs/cancel/:id", wrapper.CancelJob)
	router.POST("/jobs/terminate/:id", wrapper.TerminateJob)
	router.GET("/dispatcher", wrapper.GetDispatcherStatus)
	router.GET("/observations", wrapper.GetObservations)
	router.GET("/observations/summary", wrapper.GetObservationSummary)
	router.GET("/observations/:id", wrapper.GetObservation)
}
