// Package calendarsvc serves the holiday calendar: view state, holiday fetching and the web pages.
package calendarsvc

import (
	logger "log"
	"os"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

//Conf contains the configurable parameters of the web service
type Conf struct {
	HttpPort        int
	ShutdownTimeout time.Duration
}

//StartServices brings up the calendar webservice for controller. Returns after shutdownSignal once the
//webservice has stopped and fetches in flight have been cancelled.
func StartServices(log *logger.Logger,
	controller *Controller,
	db *sqlx.DB,
	conf Conf,
	shutdownSignal chan os.Signal) error {

	srv, err := createServer(log, controller, db, conf.HttpPort)
	if err != nil {
		return err
	}

	wg := sync.WaitGroup{}
	webServiceShutdown := make(chan bool, 1)

	wg.Add(1)
	go runWebService(log, &wg, srv, conf.ShutdownTimeout, webServiceShutdown)

	<-shutdownSignal
	log.Printf("Exiting on shutdown signal, shutting down subroutines")
	webServiceShutdown <- true
	wg.Wait()
	controller.Close()
	log.Printf("Subroutines shut down, exiting calendar service")
	return nil
}
